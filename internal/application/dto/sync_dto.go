package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SyncProductInput producto tal como lo envía el terminal en el push.
// La clave natural es (establecimiento, codigo); UpdatedAt arbitra el conflicto.
type SyncProductInput struct {
	ID            string          `json:"id,omitempty"`
	Codigo        string          `json:"codigo"`
	EAN           string          `json:"ean,omitempty"`
	Nome          string          `json:"nome"`
	Descricao     string          `json:"descricao,omitempty"`
	Categoria     string          `json:"categoria,omitempty"`
	Unidade       string          `json:"unidade"`
	PrecoCusto    decimal.Decimal `json:"precoCusto"`
	PrecoVenda    decimal.Decimal `json:"precoVenda"`
	Estoque       int             `json:"estoque"`
	EstoqueMinimo int             `json:"estoqueMinimo,omitempty"`
	NCM           string          `json:"ncm,omitempty"`
	CEST          string          `json:"cest,omitempty"`
	CFOP          string          `json:"cfop,omitempty"`
	Ativo         bool            `json:"ativo"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// SyncProductsRequest cuerpo del push de productos.
type SyncProductsRequest struct {
	Products []SyncProductInput `json:"products"`
	LastSync *time.Time         `json:"lastSync,omitempty"`
}

// SyncSaleItemInput línea de venta en el push.
type SyncSaleItemInput struct {
	ProductID     string          `json:"productId"`
	Quantidade    decimal.Decimal `json:"quantidade"`
	PrecoUnitario decimal.Decimal `json:"precoUnitario"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Desconto      decimal.Decimal `json:"desconto"`
}

// SyncSaleInput venta tal como la envía el terminal en el push.
type SyncSaleInput struct {
	ID             string              `json:"id,omitempty"`
	Numero         int64               `json:"numero"`
	Data           time.Time           `json:"data"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	Desconto       decimal.Decimal     `json:"desconto"`
	Total          decimal.Decimal     `json:"total"`
	FormaPagamento string              `json:"formaPagamento"`
	Observacoes    string              `json:"observacoes,omitempty"`
	Items          []SyncSaleItemInput `json:"items"`
}

// SyncSalesRequest cuerpo del push de ventas.
type SyncSalesRequest struct {
	Sales    []SyncSaleInput `json:"sales"`
	LastSync *time.Time      `json:"lastSync,omitempty"`
}

// SyncConflict conflicto detectado durante el push (el servidor tenía una
// versión más nueva). Se reporta como dato para revisión manual, no se
// auto-resuelve más allá de last-write-wins.
type SyncConflict struct {
	Codigo          string    `json:"codigo"`
	Reason          string    `json:"reason"`
	ServerUpdatedAt time.Time `json:"serverUpdatedAt"`
	ClientUpdatedAt time.Time `json:"clientUpdatedAt"`
}

// SyncResponse resumen de un push. Las operaciones por lote siempre reportan
// éxito parcial explícito (conteos), nunca descartan items en silencio.
type SyncResponse struct {
	Success   bool           `json:"success"`
	Synced    int            `json:"synced"`
	Errors    int            `json:"errors"`
	Conflicts []SyncConflict `json:"conflicts,omitempty"`
}

// PullProductsResponse respuesta del pull incremental de productos.
type PullProductsResponse struct {
	Products []ProductResponse `json:"products"`
	Count    int               `json:"count"`
	LastSync time.Time         `json:"lastSync"`
}

// PullSalesResponse respuesta del pull incremental de ventas.
type PullSalesResponse struct {
	Sales    []SaleResponse `json:"sales"`
	Count    int            `json:"count"`
	LastSync time.Time      `json:"lastSync"`
}

// SyncStatusResponse resumen barato para que el cliente decida si sincronizar.
type SyncStatusResponse struct {
	LastProductUpdate *time.Time `json:"lastProductUpdate,omitempty"`
	LastSaleUpdate    *time.Time `json:"lastSaleUpdate,omitempty"`
	PendingSales      int        `json:"pendingSales"`
}
