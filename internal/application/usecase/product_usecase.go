package usecase

import (
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/pdv-pro/internal/application/dto"
	"github.com/tu-usuario/pdv-pro/internal/domain"
	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
	"github.com/tu-usuario/pdv-pro/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para productos. El stock se descuenta al
// registrar ventas y se repone al cancelarlas; aquí solo se fija el inicial.
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Create crea un producto. El código es único por establecimiento.
func (uc *ProductUseCase) Create(establishmentID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if in.Codigo == "" || in.Nome == "" {
		return nil, domain.ErrInvalidInput
	}
	existing, _ := uc.repo.GetByEstablishmentAndCodigo(establishmentID, in.Codigo)
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	if in.Unidade == "" {
		in.Unidade = "UN"
	}
	ativo := true
	if in.Ativo != nil {
		ativo = *in.Ativo
	}
	now := time.Now()
	product := &entity.Product{
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
		Ativo:           ativo,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.repo.Create(product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto del establecimiento.
func (uc *ProductUseCase) GetByID(id, establishmentID string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil || product.EstablishmentID != establishmentID {
		return nil, nil
	}
	return toProductResponse(product), nil
}

// GetByCodigo obtiene un producto por su código dentro del establecimiento.
func (uc *ProductUseCase) GetByCodigo(establishmentID, codigo string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByEstablishmentAndCodigo(establishmentID, codigo)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return toProductResponse(product), nil
}

// Update actualiza campos de un producto (nil = no tocar). No modifica el
// stock: ese solo cambia por ventas, cancelaciones o sincronización.
func (uc *ProductUseCase) Update(id, establishmentID string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil || product.EstablishmentID != establishmentID {
		return nil, nil
	}
	if in.EAN != nil {
		product.EAN = *in.EAN
	}
	if in.Nome != nil {
		product.Nome = *in.Nome
	}
	if in.Descricao != nil {
		product.Descricao = *in.Descricao
	}
	if in.Categoria != nil {
		product.Categoria = *in.Categoria
	}
	if in.Unidade != nil {
		product.Unidade = *in.Unidade
	}
	if in.PrecoCusto != nil {
		product.PrecoCusto = *in.PrecoCusto
	}
	if in.PrecoVenda != nil {
		product.PrecoVenda = *in.PrecoVenda
	}
	if in.EstoqueMinimo != nil {
		product.EstoqueMinimo = *in.EstoqueMinimo
	}
	if in.NCM != nil {
		product.NCM = *in.NCM
	}
	if in.CEST != nil {
		product.CEST = *in.CEST
	}
	if in.CFOP != nil {
		product.CFOP = *in.CFOP
	}
	if in.Ativo != nil {
		product.Ativo = *in.Ativo
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos del establecimiento con paginación.
func (uc *ProductUseCase) List(establishmentID string, limit, offset int) (*dto.ProductListResponse, error) {
	list, err := uc.repo.ListByEstablishment(establishmentID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Delete elimina un producto del establecimiento.
func (uc *ProductUseCase) Delete(id, establishmentID string) error {
	product, err := uc.repo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil || product.EstablishmentID != establishmentID {
		return domain.ErrNotFound
	}
	return uc.repo.Delete(id)
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
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
