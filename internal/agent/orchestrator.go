// Package agent implementa el ciclo de sincronización del terminal PDV:
// empuja lo pendiente de la cola local, trae los cambios del servidor y
// avanza las marcas de agua de cada canal.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"github.com/tu-usuario/pdv-pro/internal/application/dto"
	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
	"github.com/tu-usuario/pdv-pro/internal/infrastructure/sqlite"
	"github.com/tu-usuario/pdv-pro/pkg/logger"
)

// ErrSyncInProgress indica que ya hay un ciclo corriendo; el disparo se descarta.
var ErrSyncInProgress = errors.New("sincronización en curso")

// PhaseResult resultado de una fase del ciclo.
type PhaseResult struct {
	Attempted int
	Synced    int
	Conflicts int
	Err       error
}

// Result resumen de un ciclo completo. Cada fase falla por separado: un error
// en una no impide las siguientes.
type Result struct {
	PushProducts   PhaseResult
	PushSales      PhaseResult
	PulledProducts int
	PulledSales    int
	PullProductsOK bool
	PullSalesOK    bool
}

// Orchestrator coordina el ciclo de sincronización. SyncAll es single-flight:
// disparos solapados se descartan en vez de encolarse.
type Orchestrator struct {
	store   LocalStore
	remote  RemoteAPI
	running atomic.Bool
	log     *logger.Logger
}

// NewOrchestrator construye el orquestador.
func NewOrchestrator(store LocalStore, remote RemoteAPI, log *logger.Logger) *Orchestrator {
	return &Orchestrator{store: store, remote: remote, log: log.Component("agent")}
}

// SyncAll corre el ciclo completo: push de productos, push de ventas, pull de
// productos y pull de ventas. Devuelve ErrSyncInProgress si ya hay uno activo.
func (o *Orchestrator) SyncAll(ctx context.Context) (*Result, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer o.running.Store(false)

	res := &Result{}
	res.PushProducts = o.pushProducts(ctx)
	res.PushSales = o.pushSales(ctx)
	o.pullProducts(ctx, res)
	o.pullSales(ctx, res)

	o.log.Info().
		Int("products_pushed", res.PushProducts.Synced).
		Int("sales_pushed", res.PushSales.Synced).
		Int("products_pulled", res.PulledProducts).
		Int("sales_pulled", res.PulledSales).
		Msg("ciclo de sincronización completado")
	return res, nil
}

// pushProducts envía los productos pendientes de la cola. Los conflictos LWW
// cuentan como resueltos: el servidor ya tiene una versión más nueva y el pull
// la va a traer, así que el item de la cola se marca igual.
func (o *Orchestrator) pushProducts(ctx context.Context) PhaseResult {
	items, err := o.store.ListPending(entity.QueueEntityProduct)
	if err != nil {
		return PhaseResult{Err: err}
	}
	if len(items) == 0 {
		return PhaseResult{}
	}

	inputs := make([]dto.SyncProductInput, 0, len(items))
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		var in dto.SyncProductInput
		if err := json.Unmarshal([]byte(it.Payload), &in); err != nil {
			// Payload corrupto: contarlo como reintento para que no bloquee la cola
			o.log.Error().Err(err).Int64("queue_id", it.ID).Msg("payload de producto ilegible")
			_ = o.store.IncrementRetry(it.ID)
			continue
		}
		inputs = append(inputs, in)
		ids = append(ids, it.ID)
	}
	if len(inputs) == 0 {
		return PhaseResult{Attempted: len(items)}
	}

	out, err := o.remote.PushProducts(ctx, dto.SyncProductsRequest{Products: inputs})
	if err != nil {
		for _, id := range ids {
			_ = o.store.IncrementRetry(id)
		}
		o.log.Warn().Err(err).Int("pending", len(ids)).Msg("push de productos fallido")
		return PhaseResult{Attempted: len(inputs), Err: err}
	}

	if err := o.store.MarkSynced(ids); err != nil {
		return PhaseResult{Attempted: len(inputs), Synced: out.Synced, Conflicts: len(out.Conflicts), Err: err}
	}
	return PhaseResult{Attempted: len(inputs), Synced: out.Synced, Conflicts: len(out.Conflicts)}
}

// pushSales envía las ventas pendientes. El servidor omite las repetidas, así
// que reenviar un lote ya aplicado es inocuo.
func (o *Orchestrator) pushSales(ctx context.Context) PhaseResult {
	items, err := o.store.ListPending(entity.QueueEntitySale)
	if err != nil {
		return PhaseResult{Err: err}
	}
	if len(items) == 0 {
		return PhaseResult{}
	}

	inputs := make([]dto.SyncSaleInput, 0, len(items))
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		var in dto.SyncSaleInput
		if err := json.Unmarshal([]byte(it.Payload), &in); err != nil {
			o.log.Error().Err(err).Int64("queue_id", it.ID).Msg("payload de venta ilegible")
			_ = o.store.IncrementRetry(it.ID)
			continue
		}
		inputs = append(inputs, in)
		ids = append(ids, it.ID)
	}
	if len(inputs) == 0 {
		return PhaseResult{Attempted: len(items)}
	}

	out, err := o.remote.PushSales(ctx, dto.SyncSalesRequest{Sales: inputs})
	if err != nil {
		for _, id := range ids {
			_ = o.store.IncrementRetry(id)
		}
		o.log.Warn().Err(err).Int("pending", len(ids)).Msg("push de ventas fallido")
		return PhaseResult{Attempted: len(inputs), Err: err}
	}

	if err := o.store.MarkSynced(ids); err != nil {
		return PhaseResult{Attempted: len(inputs), Synced: out.Synced, Err: err}
	}
	for _, in := range inputs {
		_ = o.store.MarkSaleSynced(in.Numero)
	}
	return PhaseResult{Attempted: len(inputs), Synced: out.Synced}
}

// pullProducts trae los cambios del servidor y avanza la marca de agua solo si
// todos se aplicaron. Un pull interrumpido se reanuda sin huecos.
func (o *Orchestrator) pullProducts(ctx context.Context, res *Result) {
	since, err := o.store.Watermark(sqlite.WatermarkProducts)
	if err != nil {
		o.log.Error().Err(err).Msg("marca de agua de productos ilegible")
		return
	}
	out, err := o.remote.PullProducts(ctx, since)
	if err != nil {
		o.log.Warn().Err(err).Msg("pull de productos fallido")
		return
	}
	for _, p := range out.Products {
		if err := o.store.UpsertProduct(productFromResponse(p)); err != nil {
			o.log.Error().Err(err).Str("codigo", p.Codigo).Msg("no se pudo aplicar el producto")
			return
		}
		res.PulledProducts++
	}
	if n := len(out.Products); n > 0 {
		if err := o.store.SetWatermark(sqlite.WatermarkProducts, out.Products[n-1].UpdatedAt); err != nil {
			o.log.Error().Err(err).Msg("no se pudo avanzar la marca de agua de productos")
			return
		}
	}
	res.PullProductsOK = true
}

func (o *Orchestrator) pullSales(ctx context.Context, res *Result) {
	since, err := o.store.Watermark(sqlite.WatermarkSales)
	if err != nil {
		o.log.Error().Err(err).Msg("marca de agua de ventas ilegible")
		return
	}
	out, err := o.remote.PullSales(ctx, since)
	if err != nil {
		o.log.Warn().Err(err).Msg("pull de ventas fallido")
		return
	}
	for _, s := range out.Sales {
		if err := o.store.SaveSale(saleFromResponse(s)); err != nil {
			o.log.Error().Err(err).Int64("numero", s.Numero).Msg("no se pudo aplicar la venta")
			return
		}
		res.PulledSales++
	}
	if n := len(out.Sales); n > 0 {
		if err := o.store.SetWatermark(sqlite.WatermarkSales, out.Sales[n-1].UpdatedAt); err != nil {
			o.log.Error().Err(err).Msg("no se pudo avanzar la marca de agua de ventas")
			return
		}
	}
	res.PullSalesOK = true
}

// PendingCount expone el tamaño de la cola local, para el estado del agente.
func (o *Orchestrator) PendingCount() (int, error) {
	return o.store.PendingCount()
}

func productFromResponse(p dto.ProductResponse) *entity.Product {
	return &entity.Product{
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

func saleFromResponse(s dto.SaleResponse) *entity.Sale {
	items := make([]entity.SaleItem, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, entity.SaleItem{
			ID:            it.ID,
			SaleID:        s.ID,
			ProductID:     it.ProductID,
			Quantidade:    it.Quantidade,
			PrecoUnitario: it.PrecoUnitario,
			Subtotal:      it.Subtotal,
			Desconto:      it.Desconto,
		})
	}
	return &entity.Sale{
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
		Sincronizado:    true,
		Items:           items,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}
