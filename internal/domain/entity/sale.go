package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta. Una venta concluida es inmutable salvo la transición a
// cancelada, que revierte los descuentos de stock que aplicó.
const (
	SaleStatusConcluida = "CONCLUIDA"
	SaleStatusCancelada = "CANCELADA"
)

// Sale representa una venta registrada en el PDV.
// Clave natural: (EstablishmentID, Numero). Numero es consecutivo por
// establecimiento y lo asigna el servidor al crear; los terminales lo asignan
// localmente y el push lo respeta (skip si ya existe).
type Sale struct {
	ID              string
	EstablishmentID string
	UserID          string
	Numero          int64
	Data            time.Time
	Subtotal        decimal.Decimal
	Desconto        decimal.Decimal
	Total           decimal.Decimal
	FormaPagamento  string // dinheiro, cartao, pix...
	Observacoes     string
	Status          string // CONCLUIDA, CANCELADA
	Sincronizado    bool
	Items           []SaleItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SaleItem línea de una venta.
type SaleItem struct {
	ID            string
	SaleID        string
	ProductID     string
	Quantidade    decimal.Decimal
	PrecoUnitario decimal.Decimal
	Subtotal      decimal.Decimal
	Desconto      decimal.Decimal
}
