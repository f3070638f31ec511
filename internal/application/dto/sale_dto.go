package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSaleItemRequest línea de una venta a crear.
type CreateSaleItemRequest struct {
	ProductID     string          `json:"productId"`
	Quantidade    decimal.Decimal `json:"quantidade"`
	PrecoUnitario decimal.Decimal `json:"precoUnitario"`
	Desconto      decimal.Decimal `json:"desconto"`
}

// CreateSaleRequest datos para registrar una venta.
type CreateSaleRequest struct {
	Items          []CreateSaleItemRequest `json:"items"`
	Desconto       decimal.Decimal         `json:"desconto"`
	FormaPagamento string                  `json:"formaPagamento"`
	Observacoes    string                  `json:"observacoes,omitempty"`
}

// CancelSaleRequest motivo opcional de la cancelación.
type CancelSaleRequest struct {
	Motivo string `json:"motivo,omitempty"`
}

// SaleItemResponse línea de venta en respuestas.
type SaleItemResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"productId"`
	Quantidade    decimal.Decimal `json:"quantidade"`
	PrecoUnitario decimal.Decimal `json:"precoUnitario"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Desconto      decimal.Decimal `json:"desconto"`
}

// SaleResponse representación de una venta en respuestas.
type SaleResponse struct {
	ID              string             `json:"id"`
	EstablishmentID string             `json:"establishmentId"`
	Numero          int64              `json:"numero"`
	Data            time.Time          `json:"data"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	Desconto        decimal.Decimal    `json:"desconto"`
	Total           decimal.Decimal    `json:"total"`
	FormaPagamento  string             `json:"formaPagamento"`
	Observacoes     string             `json:"observacoes,omitempty"`
	Status          string             `json:"status"`
	Sincronizado    bool               `json:"sincronizado"`
	Items           []SaleItemResponse `json:"items"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// SaleListResponse listado paginado de ventas.
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
