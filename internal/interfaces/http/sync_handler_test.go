package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/pdv-pro/internal/application/dto"
	syncapp "github.com/tu-usuario/pdv-pro/internal/application/sync"
	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
	apphttp "github.com/tu-usuario/pdv-pro/internal/interfaces/http"
	"github.com/tu-usuario/pdv-pro/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios en memoria para el handler de sync
// ──────────────────────────────────────────────────────────────────────────────

type stubProductRepo struct {
	mu   sync.Mutex
	byID map[string]*entity.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{byID: map[string]*entity.Product{}}
}

func (r *stubProductRepo) Create(p *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.byID[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) GetByID(id string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *stubProductRepo) GetByEstablishmentAndCodigo(establishmentID, codigo string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.EstablishmentID == establishmentID && p.Codigo == codigo {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubProductRepo) Update(p *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.byID[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) AdjustEstoque(productID string, delta int) error { return nil }

func (r *stubProductRepo) ListByEstablishment(establishmentID string, limit, offset int) ([]*entity.Product, error) {
	return nil, nil
}

func (r *stubProductRepo) ListUpdatedSince(establishmentID string, since time.Time) ([]*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Product
	for _, p := range r.byID {
		if p.EstablishmentID == establishmentID && p.UpdatedAt.After(since) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (r *stubProductRepo) LastUpdatedAt(establishmentID string) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last *time.Time
	for _, p := range r.byID {
		if p.EstablishmentID != establishmentID {
			continue
		}
		if last == nil || p.UpdatedAt.After(*last) {
			t := p.UpdatedAt
			last = &t
		}
	}
	return last, nil
}

func (r *stubProductRepo) Delete(id string) error { return nil }

type stubSaleRepo struct {
	mu   sync.Mutex
	byID map[string]*entity.Sale
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{byID: map[string]*entity.Sale{}}
}

func (r *stubSaleRepo) Create(s *entity.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.byID[s.ID] = &cp
	return nil
}

func (r *stubSaleRepo) GetByID(id, establishmentID string) (*entity.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok && s.EstablishmentID == establishmentID {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (r *stubSaleRepo) GetByEstablishmentAndNumero(establishmentID string, numero int64) (*entity.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.EstablishmentID == establishmentID && s.Numero == numero {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubSaleRepo) NextNumero(establishmentID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var max int64
	for _, s := range r.byID {
		if s.EstablishmentID == establishmentID && s.Numero > max {
			max = s.Numero
		}
	}
	return max + 1, nil
}

func (r *stubSaleRepo) UpdateStatus(id, status string) error { return nil }

func (r *stubSaleRepo) ListByEstablishment(establishmentID string, limit, offset int) ([]*entity.Sale, error) {
	return nil, nil
}

func (r *stubSaleRepo) ListUpdatedSince(establishmentID string, since time.Time) ([]*entity.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Sale
	for _, s := range r.byID {
		if s.EstablishmentID == establishmentID && s.UpdatedAt.After(since) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (r *stubSaleRepo) LastUpdatedAt(establishmentID string) (*time.Time, error) { return nil, nil }

func (r *stubSaleRepo) CountUnsynced(establishmentID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.byID {
		if s.EstablishmentID == establishmentID && !s.Sincronizado {
			n++
		}
	}
	return n, nil
}

// buildSyncApp arma la app con las rutas de sync protegidas por JWT, igual que el router.
func buildSyncApp(products *stubProductRepo, sales *stubSaleRepo) *fiber.App {
	uc := syncapp.NewUseCase(products, sales, nil, logger.New(logger.Config{Env: "production", Level: "error"}))
	app := fiber.New()
	h := apphttp.NewSyncHandler(uc)
	grp := app.Group("/api/sync", apphttp.AuthMiddleware(testJWTSecret))
	grp.Post("/products", h.PushProducts)
	grp.Get("/products", h.PullProducts)
	grp.Post("/sales", h.PushSales)
	grp.Get("/sales", h.PullSales)
	grp.Get("/status", h.Status)
	return app
}

func doSyncRequest(t *testing.T, app *fiber.App, method, target string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, "operador"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestSyncHandler_PushYPullProductos(t *testing.T) {
	products := newStubProductRepo()
	sales := newStubSaleRepo()
	app := buildSyncApp(products, sales)

	now := time.Now().UTC().Truncate(time.Millisecond)
	push := dto.SyncProductsRequest{Products: []dto.SyncProductInput{
		{Codigo: "P001", Nome: "Arroz 5kg", Unidade: "UN", PrecoVenda: decimal.NewFromFloat(25.90), Estoque: 10, Ativo: true, UpdatedAt: now},
		{Codigo: "P002", Nome: "Frijol 1kg", Unidade: "UN", PrecoVenda: decimal.NewFromFloat(8.50), Estoque: 30, Ativo: true, UpdatedAt: now.Add(time.Second)},
	}}

	resp := doSyncRequest(t, app, http.MethodPost, "/api/sync/products", push)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pushed dto.SyncResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pushed))
	assert.True(t, pushed.Success)
	assert.Equal(t, 2, pushed.Synced)
	assert.Empty(t, pushed.Conflicts)

	// Pull completo (sin since): deben venir ambos, en orden ascendente.
	resp = doSyncRequest(t, app, http.MethodGet, "/api/sync/products", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pulled dto.PullProductsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pulled))
	require.Len(t, pulled.Products, 2)
	assert.Equal(t, "P001", pulled.Products[0].Codigo)
	assert.Equal(t, "P002", pulled.Products[1].Codigo)

	// Pull incremental con since = updatedAt del primero: solo el segundo.
	since := pulled.Products[0].UpdatedAt.Format(time.RFC3339Nano)
	resp = doSyncRequest(t, app, http.MethodGet, "/api/sync/products?since="+since, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var incremental dto.PullProductsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&incremental))
	require.Len(t, incremental.Products, 1)
	assert.Equal(t, "P002", incremental.Products[0].Codigo)
}

func TestSyncHandler_SinceInvalido_Retorna400(t *testing.T) {
	app := buildSyncApp(newStubProductRepo(), newStubSaleRepo())

	resp := doSyncRequest(t, app, http.MethodGet, "/api/sync/products?since=ayer", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSyncHandler_PushVentasIdempotente(t *testing.T) {
	products := newStubProductRepo()
	sales := newStubSaleRepo()
	app := buildSyncApp(products, sales)

	push := dto.SyncSalesRequest{Sales: []dto.SyncSaleInput{{
		Numero:         42,
		Data:           time.Now().UTC(),
		Subtotal:       decimal.NewFromFloat(50),
		Total:          decimal.NewFromFloat(50),
		FormaPagamento: "dinheiro",
		Items: []dto.SyncSaleItemInput{{
			ProductID:     "p-1",
			Quantidade:    decimal.NewFromInt(2),
			PrecoUnitario: decimal.NewFromFloat(25),
			Subtotal:      decimal.NewFromFloat(50),
		}},
	}}}

	resp := doSyncRequest(t, app, http.MethodPost, "/api/sync/sales", push)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var first dto.SyncResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&first))
	assert.Equal(t, 1, first.Synced)

	// Reenvío del mismo lote: no duplica ni falla.
	resp = doSyncRequest(t, app, http.MethodPost, "/api/sync/sales", push)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var second dto.SyncResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&second))
	assert.True(t, second.Success)
	assert.Equal(t, 0, second.Synced)
}

func TestSyncHandler_SinToken_Retorna401(t *testing.T) {
	app := buildSyncApp(newStubProductRepo(), newStubSaleRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/sync/status", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
