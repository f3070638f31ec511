package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// NfeImport registro de una importación de NF-e. La chave de acesso (44 dígitos)
// es el identificador global del documento fiscal y deduplica importaciones
// por establecimiento.
type NfeImport struct {
	ID              string
	EstablishmentID string
	ChaveAcesso     string
	Numero          string
	Serie           string
	Modelo          string
	FornecedorCNPJ  string
	FornecedorNome  string
	DataEmissao     time.Time
	ValorTotal      decimal.Decimal
	XMLContent      string // XML original completo, para auditoría y re-descarga
	ProdutosCount   int
	CreatedAt       time.Time
}
