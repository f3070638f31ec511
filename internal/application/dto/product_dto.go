package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest datos para crear un producto.
type CreateProductRequest struct {
	Codigo        string          `json:"codigo"`
	EAN           string          `json:"ean,omitempty"`
	Nome          string          `json:"nome"`
	Descricao     string          `json:"descricao,omitempty"`
	Categoria     string          `json:"categoria,omitempty"`
	Unidade       string          `json:"unidade,omitempty"`
	PrecoCusto    decimal.Decimal `json:"precoCusto"`
	PrecoVenda    decimal.Decimal `json:"precoVenda"`
	Estoque       int             `json:"estoque"`
	EstoqueMinimo int             `json:"estoqueMinimo,omitempty"`
	NCM           string          `json:"ncm,omitempty"`
	CEST          string          `json:"cest,omitempty"`
	CFOP          string          `json:"cfop,omitempty"`
	Ativo         *bool           `json:"ativo,omitempty"`
}

// UpdateProductRequest datos parciales para actualizar un producto (nil = no tocar).
type UpdateProductRequest struct {
	EAN           *string          `json:"ean,omitempty"`
	Nome          *string          `json:"nome,omitempty"`
	Descricao     *string          `json:"descricao,omitempty"`
	Categoria     *string          `json:"categoria,omitempty"`
	Unidade       *string          `json:"unidade,omitempty"`
	PrecoCusto    *decimal.Decimal `json:"precoCusto,omitempty"`
	PrecoVenda    *decimal.Decimal `json:"precoVenda,omitempty"`
	EstoqueMinimo *int             `json:"estoqueMinimo,omitempty"`
	NCM           *string          `json:"ncm,omitempty"`
	CEST          *string          `json:"cest,omitempty"`
	CFOP          *string          `json:"cfop,omitempty"`
	Ativo         *bool            `json:"ativo,omitempty"`
}

// ProductResponse representación de un producto en respuestas.
type ProductResponse struct {
	ID              string          `json:"id"`
	EstablishmentID string          `json:"establishmentId"`
	Codigo          string          `json:"codigo"`
	EAN             string          `json:"ean,omitempty"`
	Nome            string          `json:"nome"`
	Descricao       string          `json:"descricao,omitempty"`
	Categoria       string          `json:"categoria,omitempty"`
	Unidade         string          `json:"unidade"`
	PrecoCusto      decimal.Decimal `json:"precoCusto"`
	PrecoVenda      decimal.Decimal `json:"precoVenda"`
	Estoque         int             `json:"estoque"`
	EstoqueMinimo   int             `json:"estoqueMinimo,omitempty"`
	NCM             string          `json:"ncm,omitempty"`
	CEST            string          `json:"cest,omitempty"`
	CFOP            string          `json:"cfop,omitempty"`
	Ativo           bool            `json:"ativo"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ProductListResponse listado paginado de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
