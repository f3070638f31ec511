package sync_test

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/pdv-pro/internal/application/dto"
	syncapp "github.com/tu-usuario/pdv-pro/internal/application/sync"
	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
	"github.com/tu-usuario/pdv-pro/pkg/logger"
)

const testEstab = "est-001"

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fakeProductRepo struct {
	byCodigo map[string]*entity.Product
	failOn   map[string]error // codigo -> error simulado del store
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{byCodigo: map[string]*entity.Product{}, failOn: map[string]error{}}
}

func (r *fakeProductRepo) Create(p *entity.Product) error {
	if err := r.failOn[p.Codigo]; err != nil {
		return err
	}
	cp := *p
	r.byCodigo[p.Codigo] = &cp
	return nil
}

func (r *fakeProductRepo) GetByID(id string) (*entity.Product, error) {
	for _, p := range r.byCodigo {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) GetByEstablishmentAndCodigo(_, codigo string) (*entity.Product, error) {
	p, ok := r.byCodigo[codigo]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) Update(p *entity.Product) error {
	if err := r.failOn[p.Codigo]; err != nil {
		return err
	}
	cp := *p
	r.byCodigo[p.Codigo] = &cp
	return nil
}

func (r *fakeProductRepo) AdjustEstoque(string, int) error { return nil }

func (r *fakeProductRepo) ListByEstablishment(string, int, int) ([]*entity.Product, error) {
	return nil, nil
}

func (r *fakeProductRepo) ListUpdatedSince(_ string, since time.Time) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.byCodigo {
		if p.UpdatedAt.After(since) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeProductRepo) LastUpdatedAt(string) (*time.Time, error) {
	var last *time.Time
	for _, p := range r.byCodigo {
		if last == nil || p.UpdatedAt.After(*last) {
			t := p.UpdatedAt
			last = &t
		}
	}
	return last, nil
}

func (r *fakeProductRepo) Delete(string) error { return nil }

type fakeSaleRepo struct {
	byNumero map[int64]*entity.Sale
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{byNumero: map[int64]*entity.Sale{}}
}

func (r *fakeSaleRepo) Create(s *entity.Sale) error {
	cp := *s
	r.byNumero[s.Numero] = &cp
	return nil
}

func (r *fakeSaleRepo) GetByID(string, string) (*entity.Sale, error) { return nil, nil }

func (r *fakeSaleRepo) GetByEstablishmentAndNumero(_ string, numero int64) (*entity.Sale, error) {
	s, ok := r.byNumero[numero]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSaleRepo) NextNumero(string) (int64, error) { return int64(len(r.byNumero)) + 1, nil }

func (r *fakeSaleRepo) UpdateStatus(string, string) error { return nil }

func (r *fakeSaleRepo) ListByEstablishment(string, int, int) ([]*entity.Sale, error) {
	return nil, nil
}

func (r *fakeSaleRepo) ListUpdatedSince(_ string, since time.Time) ([]*entity.Sale, error) {
	var out []*entity.Sale
	for _, s := range r.byNumero {
		if s.UpdatedAt.After(since) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeSaleRepo) LastUpdatedAt(string) (*time.Time, error) { return nil, nil }

func (r *fakeSaleRepo) CountUnsynced(string) (int, error) {
	n := 0
	for _, s := range r.byNumero {
		if !s.Sincronizado {
			n++
		}
	}
	return n, nil
}

// recordingNotifier cuenta eventos emitidos por canal.
type recordingNotifier struct {
	productUpdates int
	newSales       int
	statuses       []string
}

func (n *recordingNotifier) NotifyProductUpdated(string, *entity.Product) { n.productUpdates++ }
func (n *recordingNotifier) NotifyNewSale(string, *entity.Sale)           { n.newSales++ }
func (n *recordingNotifier) NotifySyncStatus(_, status, _ string) {
	n.statuses = append(n.statuses, status)
}

func newTestUseCase(pr *fakeProductRepo, sr *fakeSaleRepo, n syncapp.Notifier) *syncapp.UseCase {
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	return syncapp.NewUseCase(pr, sr, n, log)
}

func productInput(codigo string, updatedAt time.Time) dto.SyncProductInput {
	return dto.SyncProductInput{
		Codigo:     codigo,
		Nome:       "PRODUTO " + codigo,
		Unidade:    "UN",
		PrecoVenda: decimal.NewFromFloat(9.90),
		Estoque:    10,
		Ativo:      true,
		UpdatedAt:  updatedAt,
	}
}

func saleInput(numero int64) dto.SyncSaleInput {
	return dto.SyncSaleInput{
		Numero:         numero,
		Data:           time.Now(),
		Subtotal:       decimal.NewFromInt(100),
		Total:          decimal.NewFromInt(100),
		FormaPagamento: "dinheiro",
		Items: []dto.SyncSaleItemInput{
			{ProductID: "p1", Quantidade: decimal.NewFromInt(2), PrecoUnitario: decimal.NewFromInt(50), Subtotal: decimal.NewFromInt(100)},
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// PushProducts
// ──────────────────────────────────────────────────────────────────────────────

func TestPushProducts_CreaNuevos(t *testing.T) {
	pr := newFakeProductRepo()
	notif := &recordingNotifier{}
	uc := newTestUseCase(pr, newFakeSaleRepo(), notif)

	out, err := uc.PushProducts(testEstab, dto.SyncProductsRequest{
		Products: []dto.SyncProductInput{
			productInput("A1", time.Now()),
			productInput("A2", time.Now()),
		},
	})
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, 2, out.Synced)
	assert.Equal(t, 0, out.Errors)
	assert.Empty(t, out.Conflicts)
	assert.Len(t, pr.byCodigo, 2)
	assert.Equal(t, 2, notif.productUpdates)
	// Status emitido antes y después del loop
	assert.Equal(t, []string{"syncing", "synced"}, notif.statuses)
}

// LWW: servidor estrictamente más nuevo → exactamente un conflicto y el
// servidor queda intacto. Con los timestamps invertidos → sin conflicto y el
// servidor refleja los campos del terminal.
func TestPushProducts_LastWriteWins(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	t.Run("servidor más nuevo gana", func(t *testing.T) {
		pr := newFakeProductRepo()
		pr.byCodigo["A1"] = &entity.Product{Codigo: "A1", Nome: "VERSION SERVIDOR", UpdatedAt: t2}

		uc := newTestUseCase(pr, newFakeSaleRepo(), nil)
		out, err := uc.PushProducts(testEstab, dto.SyncProductsRequest{
			Products: []dto.SyncProductInput{productInput("A1", t1)},
		})
		require.NoError(t, err)

		require.Len(t, out.Conflicts, 1)
		assert.Equal(t, "A1", out.Conflicts[0].Codigo)
		assert.Equal(t, t2, out.Conflicts[0].ServerUpdatedAt)
		assert.Equal(t, t1, out.Conflicts[0].ClientUpdatedAt)
		assert.Equal(t, 0, out.Synced)
		// El servidor no se tocó
		assert.Equal(t, "VERSION SERVIDOR", pr.byCodigo["A1"].Nome)
	})

	t.Run("terminal más nuevo sobrescribe", func(t *testing.T) {
		pr := newFakeProductRepo()
		pr.byCodigo["A1"] = &entity.Product{Codigo: "A1", Nome: "VERSION SERVIDOR", UpdatedAt: t1}

		uc := newTestUseCase(pr, newFakeSaleRepo(), nil)
		out, err := uc.PushProducts(testEstab, dto.SyncProductsRequest{
			Products: []dto.SyncProductInput{productInput("A1", t2)},
		})
		require.NoError(t, err)

		assert.Empty(t, out.Conflicts)
		assert.Equal(t, 1, out.Synced)
		assert.Equal(t, "PRODUTO A1", pr.byCodigo["A1"].Nome)
	})

	t.Run("empate: gana el entrante", func(t *testing.T) {
		pr := newFakeProductRepo()
		pr.byCodigo["A1"] = &entity.Product{Codigo: "A1", Nome: "VERSION SERVIDOR", UpdatedAt: t1}

		uc := newTestUseCase(pr, newFakeSaleRepo(), nil)
		out, err := uc.PushProducts(testEstab, dto.SyncProductsRequest{
			Products: []dto.SyncProductInput{productInput("A1", t1)},
		})
		require.NoError(t, err)

		assert.Empty(t, out.Conflicts)
		assert.Equal(t, 1, out.Synced)
		assert.Equal(t, "PRODUTO A1", pr.byCodigo["A1"].Nome)
	})
}

// Un lote de 5 donde el item #3 dispara una excepción del store: synced 4,
// errors 1 y la llamada retorna normalmente.
func TestPushProducts_FalloParcial(t *testing.T) {
	pr := newFakeProductRepo()
	pr.failOn["A3"] = errors.New("store caído")

	uc := newTestUseCase(pr, newFakeSaleRepo(), nil)
	out, err := uc.PushProducts(testEstab, dto.SyncProductsRequest{
		Products: []dto.SyncProductInput{
			productInput("A1", time.Now()),
			productInput("A2", time.Now()),
			productInput("A3", time.Now()),
			productInput("A4", time.Now()),
			productInput("A5", time.Now()),
		},
	})
	require.NoError(t, err)

	assert.False(t, out.Success)
	assert.Equal(t, 4, out.Synced)
	assert.Equal(t, 1, out.Errors)
	assert.Empty(t, out.Conflicts)
}

// ──────────────────────────────────────────────────────────────────────────────
// PushSales
// ──────────────────────────────────────────────────────────────────────────────

// Reenviar el mismo lote de ventas es no-op: primer push sincroniza todo, el
// replay inmediato no crea duplicados ni errores.
func TestPushSales_Idempotente(t *testing.T) {
	sr := newFakeSaleRepo()
	notif := &recordingNotifier{}
	uc := newTestUseCase(newFakeProductRepo(), sr, notif)

	req := dto.SyncSalesRequest{Sales: []dto.SyncSaleInput{saleInput(1), saleInput(2)}}

	out, err := uc.PushSales(testEstab, "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Synced)
	assert.Equal(t, 0, out.Errors)
	assert.Equal(t, 2, notif.newSales)

	// Replay inmediato
	out, err = uc.PushSales(testEstab, "user-1", req)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, 0, out.Synced)
	assert.Equal(t, 0, out.Errors)
	assert.Len(t, sr.byNumero, 2)
	// Las ventas omitidas no re-notifican
	assert.Equal(t, 2, notif.newSales)
}

func TestPushSales_MarcaSincronizado(t *testing.T) {
	sr := newFakeSaleRepo()
	uc := newTestUseCase(newFakeProductRepo(), sr, nil)

	_, err := uc.PushSales(testEstab, "user-1", dto.SyncSalesRequest{Sales: []dto.SyncSaleInput{saleInput(7)}})
	require.NoError(t, err)

	created := sr.byNumero[7]
	require.NotNil(t, created)
	assert.True(t, created.Sincronizado)
	assert.Equal(t, entity.SaleStatusConcluida, created.Status)
	assert.Equal(t, "user-1", created.UserID)
	require.Len(t, created.Items, 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// Pull
// ──────────────────────────────────────────────────────────────────────────────

// Pull desde T0 y luego desde el UpdatedAt del último item recibido: sin
// solapamiento y sin huecos frente a un único pull que cubra todo el rango.
func TestPullProducts_OrdenYReanudacion(t *testing.T) {
	pr := newFakeProductRepo()
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 6; i++ {
		codigo := string(rune('A' + i - 1))
		pr.byCodigo[codigo] = &entity.Product{
			ID:        codigo,
			Codigo:    codigo,
			UpdatedAt: t0.Add(time.Duration(i) * time.Minute),
		}
	}

	uc := newTestUseCase(pr, newFakeSaleRepo(), nil)

	completo, err := uc.PullProductsSince(testEstab, t0)
	require.NoError(t, err)
	require.Equal(t, 6, completo.Count)

	// Orden ascendente estricto por UpdatedAt
	for i := 1; i < len(completo.Products); i++ {
		assert.True(t, completo.Products[i-1].UpdatedAt.Before(completo.Products[i].UpdatedAt))
	}

	// Primer pull parcial: avanza la marca de agua al último item recibido
	primera, err := uc.PullProductsSince(testEstab, t0)
	require.NoError(t, err)
	watermark := primera.Products[2].UpdatedAt

	segunda, err := uc.PullProductsSince(testEstab, watermark)
	require.NoError(t, err)
	require.Equal(t, 3, segunda.Count)

	var vistos []string
	for _, p := range primera.Products[:3] {
		vistos = append(vistos, p.Codigo)
	}
	for _, p := range segunda.Products {
		vistos = append(vistos, p.Codigo)
	}
	var todos []string
	for _, p := range completo.Products {
		todos = append(todos, p.Codigo)
	}
	assert.Equal(t, todos, vistos, "reanudar desde la marca de agua no debe solapar ni dejar huecos")
}

func TestPullProducts_SinCambios(t *testing.T) {
	uc := newTestUseCase(newFakeProductRepo(), newFakeSaleRepo(), nil)

	out, err := uc.PullProductsSince(testEstab, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, out.Count)
	assert.NotNil(t, out.Products)
}

// ──────────────────────────────────────────────────────────────────────────────
// Status
// ──────────────────────────────────────────────────────────────────────────────

func TestStatus_CuentaPendientes(t *testing.T) {
	pr := newFakeProductRepo()
	sr := newFakeSaleRepo()
	now := time.Now()
	pr.byCodigo["A1"] = &entity.Product{Codigo: "A1", UpdatedAt: now}
	sr.byNumero[1] = &entity.Sale{Numero: 1, Sincronizado: true, UpdatedAt: now}
	sr.byNumero[2] = &entity.Sale{Numero: 2, Sincronizado: false, UpdatedAt: now}
	sr.byNumero[3] = &entity.Sale{Numero: 3, Sincronizado: false, UpdatedAt: now}

	uc := newTestUseCase(pr, sr, nil)
	out, err := uc.Status(testEstab)
	require.NoError(t, err)

	require.NotNil(t, out.LastProductUpdate)
	assert.True(t, out.LastProductUpdate.Equal(now))
	assert.Equal(t, 2, out.PendingSales)
}
