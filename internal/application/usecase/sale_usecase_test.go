package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/pdv-pro/internal/application/dto"
	"github.com/tu-usuario/pdv-pro/internal/application/usecase"
	"github.com/tu-usuario/pdv-pro/internal/domain"
	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
	"github.com/tu-usuario/pdv-pro/internal/domain/repository"
	"github.com/tu-usuario/pdv-pro/pkg/logger"
)

const testEstab = "est-001"

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ──────────────────────────────────────────────────────────────────────────────

type memProductRepo struct {
	byID map[string]*entity.Product
}

func (r *memProductRepo) Create(p *entity.Product) error { r.byID[p.ID] = p; return nil }

func (r *memProductRepo) GetByID(id string) (*entity.Product, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memProductRepo) GetByEstablishmentAndCodigo(_, codigo string) (*entity.Product, error) {
	for _, p := range r.byID {
		if p.Codigo == codigo {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memProductRepo) Update(p *entity.Product) error { r.byID[p.ID] = p; return nil }

func (r *memProductRepo) AdjustEstoque(productID string, delta int) error {
	p, ok := r.byID[productID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Estoque += delta
	p.UpdatedAt = time.Now()
	return nil
}

func (r *memProductRepo) ListByEstablishment(string, int, int) ([]*entity.Product, error) {
	return nil, nil
}

func (r *memProductRepo) ListUpdatedSince(string, time.Time) ([]*entity.Product, error) {
	return nil, nil
}

func (r *memProductRepo) LastUpdatedAt(string) (*time.Time, error) { return nil, nil }
func (r *memProductRepo) Delete(id string) error                   { delete(r.byID, id); return nil }

type memSaleRepo struct {
	byID map[string]*entity.Sale
}

func (r *memSaleRepo) Create(s *entity.Sale) error { cp := *s; r.byID[s.ID] = &cp; return nil }

func (r *memSaleRepo) GetByID(id, establishmentID string) (*entity.Sale, error) {
	s, ok := r.byID[id]
	if !ok || s.EstablishmentID != establishmentID {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memSaleRepo) GetByEstablishmentAndNumero(string, int64) (*entity.Sale, error) {
	return nil, nil
}

func (r *memSaleRepo) NextNumero(string) (int64, error) { return int64(len(r.byID)) + 1, nil }

func (r *memSaleRepo) UpdateStatus(id, status string) error {
	s, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = time.Now()
	return nil
}

func (r *memSaleRepo) ListByEstablishment(string, int, int) ([]*entity.Sale, error) {
	return nil, nil
}

func (r *memSaleRepo) ListUpdatedSince(string, time.Time) ([]*entity.Sale, error) { return nil, nil }
func (r *memSaleRepo) LastUpdatedAt(string) (*time.Time, error)                   { return nil, nil }
func (r *memSaleRepo) CountUnsynced(string) (int, error)                          { return 0, nil }

// memTxRunner pasa los mismos repos en memoria al callback. No simula
// rollback: los tests que esperan fallo verifican el error, no el estado.
type memTxRunner struct {
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
}

func (r *memTxRunner) Run(_ context.Context, fn func(
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
) error) error {
	return fn(r.saleRepo, r.productRepo)
}

func newSaleFixture() (*usecase.SaleUseCase, *memProductRepo, *memSaleRepo) {
	pr := &memProductRepo{byID: map[string]*entity.Product{
		"p1": {ID: "p1", EstablishmentID: testEstab, Codigo: "A1", Nome: "ARROZ", Estoque: 10},
		"p2": {ID: "p2", EstablishmentID: testEstab, Codigo: "A2", Nome: "FEIJAO", Estoque: 3},
	}}
	sr := &memSaleRepo{byID: map[string]*entity.Sale{}}
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	uc := usecase.NewSaleUseCase(&memTxRunner{saleRepo: sr, productRepo: pr}, sr, nil, log)
	return uc, pr, sr
}

func saleRequest(productID string, qty int64) dto.CreateSaleRequest {
	return dto.CreateSaleRequest{
		Items: []dto.CreateSaleItemRequest{
			{ProductID: productID, Quantidade: decimal.NewFromInt(qty), PrecoUnitario: decimal.NewFromFloat(5.50)},
		},
		FormaPagamento: "dinheiro",
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────────────────────────────────

func TestSaleCreate_DescuentaStock(t *testing.T) {
	uc, pr, _ := newSaleFixture()

	out, err := uc.Create(context.Background(), testEstab, "user-1", saleRequest("p1", 4))
	require.NoError(t, err)

	assert.Equal(t, int64(1), out.Numero)
	assert.Equal(t, entity.SaleStatusConcluida, out.Status)
	assert.True(t, out.Total.Equal(decimal.NewFromFloat(22.0)))
	assert.Equal(t, 6, pr.byID["p1"].Estoque)
}

func TestSaleCreate_StockInsuficiente(t *testing.T) {
	uc, pr, sr := newSaleFixture()

	_, err := uc.Create(context.Background(), testEstab, "user-1", saleRequest("p2", 5))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 3, pr.byID["p2"].Estoque)
	assert.Empty(t, sr.byID)
}

func TestSaleCreate_ProductoAjeno(t *testing.T) {
	uc, pr, _ := newSaleFixture()
	pr.byID["px"] = &entity.Product{ID: "px", EstablishmentID: "otro-est", Estoque: 100}

	_, err := uc.Create(context.Background(), testEstab, "user-1", saleRequest("px", 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaleCreate_SinItems(t *testing.T) {
	uc, _, _ := newSaleFixture()

	_, err := uc.Create(context.Background(), testEstab, "user-1", dto.CreateSaleRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancel
// ──────────────────────────────────────────────────────────────────────────────

func TestSaleCancel_ReponeStock(t *testing.T) {
	uc, pr, _ := newSaleFixture()

	created, err := uc.Create(context.Background(), testEstab, "user-1", saleRequest("p1", 4))
	require.NoError(t, err)
	require.Equal(t, 6, pr.byID["p1"].Estoque)

	canceled, err := uc.Cancel(context.Background(), created.ID, testEstab)
	require.NoError(t, err)

	assert.Equal(t, entity.SaleStatusCancelada, canceled.Status)
	assert.Equal(t, 10, pr.byID["p1"].Estoque)
}

func TestSaleCancel_YaCancelada(t *testing.T) {
	uc, _, _ := newSaleFixture()

	created, err := uc.Create(context.Background(), testEstab, "user-1", saleRequest("p1", 1))
	require.NoError(t, err)

	_, err = uc.Cancel(context.Background(), created.ID, testEstab)
	require.NoError(t, err)

	_, err = uc.Cancel(context.Background(), created.ID, testEstab)
	assert.ErrorIs(t, err, domain.ErrSaleCanceled)
}

func TestSaleCancel_NoExiste(t *testing.T) {
	uc, _, _ := newSaleFixture()

	_, err := uc.Cancel(context.Background(), "no-such", testEstab)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
