package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pdv-pro/internal/application/dto"
	syncapp "github.com/tu-usuario/pdv-pro/internal/application/sync"
	"github.com/tu-usuario/pdv-pro/internal/domain"
	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
	"github.com/tu-usuario/pdv-pro/internal/domain/repository"
	"github.com/tu-usuario/pdv-pro/pkg/logger"
)

// SaleUseCase registro y cancelación de ventas. Crear descuenta stock y
// cancelar lo repone; ambas operaciones corren en una transacción.
type SaleUseCase struct {
	txRunner SaleTxRunner
	saleRepo repository.SaleRepository
	notifier syncapp.Notifier
	log      *logger.Logger
}

// NewSaleUseCase construye el caso de uso. notifier puede ser NopNotifier.
func NewSaleUseCase(txRunner SaleTxRunner, saleRepo repository.SaleRepository, notifier syncapp.Notifier, log *logger.Logger) *SaleUseCase {
	if notifier == nil {
		notifier = syncapp.NopNotifier{}
	}
	return &SaleUseCase{
		txRunner: txRunner,
		saleRepo: saleRepo,
		notifier: notifier,
		log:      log.Component("sales"),
	}
}

// Create registra una venta: valida los items, verifica stock, asigna el
// consecutivo del establecimiento y descuenta el stock de cada producto.
// Commit o Rollback como unidad.
func (uc *SaleUseCase) Create(ctx context.Context, establishmentID, userID string, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, it := range in.Items {
		if it.ProductID == "" || !it.Quantidade.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
	}

	now := time.Now()
	var created *entity.Sale

	err := uc.txRunner.Run(ctx, func(
		saleRepo repository.SaleRepository,
		productRepo repository.ProductRepository,
	) error {
		subtotal := decimal.Zero
		items := make([]entity.SaleItem, 0, len(in.Items))
		saleID := uuid.New().String()

		for _, it := range in.Items {
			product, err := productRepo.GetByID(it.ProductID)
			if err != nil {
				return err
			}
			if product == nil || product.EstablishmentID != establishmentID {
				return domain.ErrNotFound
			}
			estoque := decimal.NewFromInt(int64(product.Estoque))
			if estoque.LessThan(it.Quantidade) {
				return domain.ErrInsufficientStock
			}
			itemSubtotal := it.PrecoUnitario.Mul(it.Quantidade).Sub(it.Desconto)
			subtotal = subtotal.Add(itemSubtotal)
			items = append(items, entity.SaleItem{
				ID:            uuid.New().String(),
				SaleID:        saleID,
				ProductID:     it.ProductID,
				Quantidade:    it.Quantidade,
				PrecoUnitario: it.PrecoUnitario,
				Subtotal:      itemSubtotal,
				Desconto:      it.Desconto,
			})
		}

		numero, err := saleRepo.NextNumero(establishmentID)
		if err != nil {
			return err
		}

		sale := &entity.Sale{
			ID:              saleID,
			EstablishmentID: establishmentID,
			UserID:          userID,
			Numero:          numero,
			Data:            now,
			Subtotal:        subtotal,
			Desconto:        in.Desconto,
			Total:           subtotal.Sub(in.Desconto),
			FormaPagamento:  in.FormaPagamento,
			Observacoes:     in.Observacoes,
			Status:          entity.SaleStatusConcluida,
			Sincronizado:    true,
			Items:           items,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := saleRepo.Create(sale); err != nil {
			return err
		}
		for _, it := range items {
			delta := int(it.Quantidade.IntPart())
			if err := productRepo.AdjustEstoque(it.ProductID, -delta); err != nil {
				return err
			}
		}
		created = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("sale_id", created.ID).
		Int64("numero", created.Numero).
		Str("establishment_id", establishmentID).
		Msg("venta registrada")
	uc.notifier.NotifyNewSale(establishmentID, created)

	return toSaleResponse(created), nil
}

// Cancel cancela una venta concluida y repone el stock de sus items.
func (uc *SaleUseCase) Cancel(ctx context.Context, id, establishmentID string) (*dto.SaleResponse, error) {
	sale, err := uc.saleRepo.GetByID(id, establishmentID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	if sale.Status == entity.SaleStatusCancelada {
		return nil, domain.ErrSaleCanceled
	}

	err = uc.txRunner.Run(ctx, func(
		saleRepo repository.SaleRepository,
		productRepo repository.ProductRepository,
	) error {
		if err := saleRepo.UpdateStatus(sale.ID, entity.SaleStatusCancelada); err != nil {
			return err
		}
		for _, it := range sale.Items {
			delta := int(it.Quantidade.IntPart())
			if err := productRepo.AdjustEstoque(it.ProductID, delta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sale.Status = entity.SaleStatusCancelada
	sale.UpdatedAt = time.Now()
	uc.log.Info().Str("sale_id", sale.ID).Int64("numero", sale.Numero).Msg("venta cancelada")
	return toSaleResponse(sale), nil
}

// GetByID obtiene una venta del establecimiento con sus items.
func (uc *SaleUseCase) GetByID(id, establishmentID string) (*dto.SaleResponse, error) {
	sale, err := uc.saleRepo.GetByID(id, establishmentID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, nil
	}
	return toSaleResponse(sale), nil
}

// List lista ventas del establecimiento con paginación.
func (uc *SaleUseCase) List(establishmentID string, limit, offset int) (*dto.SaleListResponse, error) {
	list, err := uc.saleRepo.ListByEstablishment(establishmentID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		items = append(items, *toSaleResponse(s))
	}
	return &dto.SaleListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func toSaleResponse(s *entity.Sale) *dto.SaleResponse {
	if s == nil {
		return nil
	}
	items := make([]dto.SaleItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, dto.SaleItemResponse{
			ID:            it.ID,
			ProductID:     it.ProductID,
			Quantidade:    it.Quantidade,
			PrecoUnitario: it.PrecoUnitario,
			Subtotal:      it.Subtotal,
			Desconto:      it.Desconto,
		})
	}
	return &dto.SaleResponse{
		ID:              s.ID,
		EstablishmentID: s.EstablishmentID,
		Numero:          s.Numero,
		Data:            s.Data,
		Subtotal:        s.Subtotal,
		Desconto:        s.Desconto,
		Total:           s.Total,
		FormaPagamento:  s.FormaPagamento,
		Observacoes:     s.Observacoes,
		Status:          s.Status,
		Sincronizado:    s.Sincronizado,
		Items:           items,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}
