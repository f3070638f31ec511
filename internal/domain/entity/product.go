package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo del PDV.
// Clave natural: (EstablishmentID, Codigo). UpdatedAt arbitra los conflictos
// de sincronización (last-write-wins); debe asignarse en cada escritura.
type Product struct {
	ID              string
	EstablishmentID string
	Codigo          string // código único por establecimiento
	EAN             string // código de barras normalizado; vacío = sin código
	Nome            string
	Descricao       string
	Categoria       string
	Unidade         string // UN, KG, CX...
	PrecoCusto      decimal.Decimal
	PrecoVenda      decimal.Decimal
	Estoque         int
	EstoqueMinimo   int
	NCM             string // clasificación fiscal (opcional)
	CEST            string
	CFOP            string
	Ativo           bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ApplyIncoming copia en el producto los campos mutables que un terminal puede
// sobrescribir durante el push (la clave natural y los IDs no se tocan).
func (p *Product) ApplyIncoming(in *Product) {
	p.EAN = in.EAN
	p.Nome = in.Nome
	p.Descricao = in.Descricao
	p.Categoria = in.Categoria
	p.Unidade = in.Unidade
	p.PrecoCusto = in.PrecoCusto
	p.PrecoVenda = in.PrecoVenda
	p.Estoque = in.Estoque
	p.EstoqueMinimo = in.EstoqueMinimo
	p.NCM = in.NCM
	p.CEST = in.CEST
	p.CFOP = in.CFOP
	p.Ativo = in.Ativo
	p.UpdatedAt = in.UpdatedAt
}
