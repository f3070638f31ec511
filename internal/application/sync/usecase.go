package sync

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/pdv-pro/internal/application/dto"
	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
	"github.com/tu-usuario/pdv-pro/internal/domain/repository"
	"github.com/tu-usuario/pdv-pro/pkg/logger"
)

// UseCase reconcilia los datos de los terminales PDV con el servidor central.
// Push: last-write-wins por UpdatedAt sobre la clave natural (establecimiento,
// codigo) para productos; idempotente por (establecimiento, numero) para
// ventas. Pull: incremental por marca de agua, orden ascendente por UpdatedAt.
//
// El loop de push procesa las entidades estrictamente en secuencia dentro de
// una llamada; no hay locking — la corrección entre llamadas concurrentes
// descansa en la asignación monotónica de UpdatedAt al escribir.
type UseCase struct {
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	notifier    Notifier
	log         *logger.Logger
}

// NewUseCase construye el reconciliador. notifier puede ser NopNotifier.
func NewUseCase(productRepo repository.ProductRepository, saleRepo repository.SaleRepository, notifier Notifier, log *logger.Logger) *UseCase {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &UseCase{productRepo: productRepo, saleRepo: saleRepo, notifier: notifier, log: log}
}

// PushProducts sube productos del terminal al servidor. Por cada producto:
// si no existe se crea; si existe y el servidor tiene versión estrictamente
// más nueva se registra conflicto y se omite la escritura (gana el servidor,
// sin merge); en empate o entrante más nuevo se sobrescriben los campos
// mutables. Un item malo nunca aborta el lote: se acumula en Errors y se
// continúa — el éxito parcial es el caso normal, no un estado de error.
func (uc *UseCase) PushProducts(establishmentID string, in dto.SyncProductsRequest) (*dto.SyncResponse, error) {
	synced, errores := 0, 0
	var conflicts []dto.SyncConflict

	uc.notifier.NotifySyncStatus(establishmentID, "syncing", "Sincronizando produtos...")

	for _, p := range in.Products {
		incoming := syncInputToProduct(establishmentID, p)

		existing, err := uc.productRepo.GetByEstablishmentAndCodigo(establishmentID, p.Codigo)
		if err != nil {
			errores++
			uc.log.Error().Err(err).Str("codigo", p.Codigo).Msg("push de producto falló")
			continue
		}

		if existing != nil {
			if existing.UpdatedAt.After(p.UpdatedAt) {
				conflicts = append(conflicts, dto.SyncConflict{
					Codigo:          p.Codigo,
					Reason:          "Server version is newer",
					ServerUpdatedAt: existing.UpdatedAt,
					ClientUpdatedAt: p.UpdatedAt,
				})
				continue
			}
			existing.ApplyIncoming(incoming)
			if err := uc.productRepo.Update(existing); err != nil {
				errores++
				uc.log.Error().Err(err).Str("codigo", p.Codigo).Msg("push de producto falló")
				continue
			}
			incoming = existing
		} else {
			if err := uc.productRepo.Create(incoming); err != nil {
				errores++
				uc.log.Error().Err(err).Str("codigo", p.Codigo).Msg("push de producto falló")
				continue
			}
		}

		synced++
		uc.notifier.NotifyProductUpdated(establishmentID, incoming)
	}

	uc.notifier.NotifySyncStatus(establishmentID, "synced", fmt.Sprintf("%d produtos sincronizados", synced))

	return &dto.SyncResponse{
		Success:   errores == 0,
		Synced:    synced,
		Errors:    errores,
		Conflicts: conflicts,
	}, nil
}

// PushSales sube ventas del terminal al servidor. Si ya existe una venta con
// el mismo (establecimiento, numero) se omite en silencio: así funcionan los
// reintentos seguros — reenviar una venta ya sincronizada es no-op, no error,
// no conflicto. No hay camino de update: una venta creada remotamente es
// inmutable desde la perspectiva del sync (la cancelación es una operación
// explícita fuera del sync).
func (uc *UseCase) PushSales(establishmentID, userID string, in dto.SyncSalesRequest) (*dto.SyncResponse, error) {
	synced, errores := 0, 0

	uc.notifier.NotifySyncStatus(establishmentID, "syncing", "Sincronizando vendas...")

	for _, s := range in.Sales {
		existing, err := uc.saleRepo.GetByEstablishmentAndNumero(establishmentID, s.Numero)
		if err != nil {
			errores++
			uc.log.Error().Err(err).Int64("numero", s.Numero).Msg("push de venta falló")
			continue
		}
		if existing != nil {
			// Ya sincronizada en un push anterior
			continue
		}

		sale := syncInputToSale(establishmentID, userID, s)
		if err := uc.saleRepo.Create(sale); err != nil {
			errores++
			uc.log.Error().Err(err).Int64("numero", s.Numero).Msg("push de venta falló")
			continue
		}

		synced++
		uc.notifier.NotifyNewSale(establishmentID, sale)
	}

	uc.notifier.NotifySyncStatus(establishmentID, "synced", fmt.Sprintf("%d vendas sincronizadas", synced))

	return &dto.SyncResponse{
		Success: errores == 0,
		Synced:  synced,
		Errors:  errores,
	}, nil
}

// PullProductsSince devuelve productos con UpdatedAt estrictamente mayor a
// since, en orden ascendente: el caller puede avanzar su marca de agua al
// UpdatedAt del último item recibido y reanudar sin huecos ni repeticiones
// incluso si un pull se interrumpe a la mitad.
func (uc *UseCase) PullProductsSince(establishmentID string, since time.Time) (*dto.PullProductsResponse, error) {
	products, err := uc.productRepo.ListUpdatedSince(establishmentID, since)
	if err != nil {
		return nil, fmt.Errorf("pull de productos: %w", err)
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		items = append(items, *toProductResponse(p))
	}
	return &dto.PullProductsResponse{
		Products: items,
		Count:    len(items),
		LastSync: time.Now(),
	}, nil
}

// PullSalesSince análogo a PullProductsSince para ventas.
func (uc *UseCase) PullSalesSince(establishmentID string, since time.Time) (*dto.PullSalesResponse, error) {
	sales, err := uc.saleRepo.ListUpdatedSince(establishmentID, since)
	if err != nil {
		return nil, fmt.Errorf("pull de ventas: %w", err)
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for _, s := range sales {
		items = append(items, *toSaleResponse(s))
	}
	return &dto.PullSalesResponse{
		Sales:    items,
		Count:    len(items),
		LastSync: time.Now(),
	}, nil
}

// Status resumen barato de solo lectura: últimas actualizaciones y ventas
// pendientes (Sincronizado = false).
func (uc *UseCase) Status(establishmentID string) (*dto.SyncStatusResponse, error) {
	lastProduct, err := uc.productRepo.LastUpdatedAt(establishmentID)
	if err != nil {
		return nil, fmt.Errorf("status de sync: %w", err)
	}
	lastSale, err := uc.saleRepo.LastUpdatedAt(establishmentID)
	if err != nil {
		return nil, fmt.Errorf("status de sync: %w", err)
	}
	pending, err := uc.saleRepo.CountUnsynced(establishmentID)
	if err != nil {
		return nil, fmt.Errorf("status de sync: %w", err)
	}
	return &dto.SyncStatusResponse{
		LastProductUpdate: lastProduct,
		LastSaleUpdate:    lastSale,
		PendingSales:      pending,
	}, nil
}

// ── Mapeos ────────────────────────────────────────────────────────────────────

func syncInputToProduct(establishmentID string, in dto.SyncProductInput) *entity.Product {
	now := time.Now()
	return &entity.Product{
		ID:              uuid.New().String(),
		EstablishmentID: establishmentID,
		Codigo:          in.Codigo,
		EAN:             in.EAN,
		Nome:            in.Nome,
		Descricao:       in.Descricao,
		Categoria:       in.Categoria,
		Unidade:         in.Unidade,
		PrecoCusto:      in.PrecoCusto,
		PrecoVenda:      in.PrecoVenda,
		Estoque:         in.Estoque,
		EstoqueMinimo:   in.EstoqueMinimo,
		NCM:             in.NCM,
		CEST:            in.CEST,
		CFOP:            in.CFOP,
		Ativo:           in.Ativo,
		CreatedAt:       now,
		UpdatedAt:       in.UpdatedAt,
	}
}

func syncInputToSale(establishmentID, userID string, in dto.SyncSaleInput) *entity.Sale {
	now := time.Now()
	saleID := uuid.New().String()
	items := make([]entity.SaleItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, entity.SaleItem{
			ID:            uuid.New().String(),
			SaleID:        saleID,
			ProductID:     it.ProductID,
			Quantidade:    it.Quantidade,
			PrecoUnitario: it.PrecoUnitario,
			Subtotal:      it.Subtotal,
			Desconto:      it.Desconto,
		})
	}
	return &entity.Sale{
		ID:              saleID,
		EstablishmentID: establishmentID,
		UserID:          userID,
		Numero:          in.Numero,
		Data:            in.Data,
		Subtotal:        in.Subtotal,
		Desconto:        in.Desconto,
		Total:           in.Total,
		FormaPagamento:  in.FormaPagamento,
		Observacoes:     in.Observacoes,
		Status:          entity.SaleStatusConcluida,
		Sincronizado:    true,
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:              p.ID,
		EstablishmentID: p.EstablishmentID,
		Codigo:          p.Codigo,
		EAN:             p.EAN,
		Nome:            p.Nome,
		Descricao:       p.Descricao,
		Categoria:       p.Categoria,
		Unidade:         p.Unidade,
		PrecoCusto:      p.PrecoCusto,
		PrecoVenda:      p.PrecoVenda,
		Estoque:         p.Estoque,
		EstoqueMinimo:   p.EstoqueMinimo,
		NCM:             p.NCM,
		CEST:            p.CEST,
		CFOP:            p.CFOP,
		Ativo:           p.Ativo,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toSaleResponse(s *entity.Sale) *dto.SaleResponse {
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
