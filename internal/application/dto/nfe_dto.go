package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pdv-pro/internal/domain/nfe"
)

// ParseNfeRequest cuerpo del endpoint de importación de NF-e.
type ParseNfeRequest struct {
	XMLContent string `json:"xmlContent"`
}

// ParseNfeResponse respuesta exitosa de la importación: el documento extraído
// más el flag de deduplicación por chave de acesso.
type ParseNfeResponse struct {
	Success         bool                  `json:"success"`
	AlreadyImported bool                  `json:"alreadyImported"`
	Info            nfe.InfoGeral         `json:"info"`
	Fornecedor      nfe.Fornecedor        `json:"fornecedor"`
	Produtos        []nfe.ProdutoExtraido `json:"produtos"`
	TotalProdutos   int                   `json:"totalProdutos"`
}

// ParseNfeErrorResponse respuesta de fallo del parse.
type ParseNfeErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// NfeImportSummary resumen de una importación en el historial (sin XML).
type NfeImportSummary struct {
	ID             string          `json:"id"`
	ChaveAcesso    string          `json:"chaveAcesso"`
	Numero         string          `json:"numero"`
	Serie          string          `json:"serie"`
	FornecedorCNPJ string          `json:"fornecedorCnpj"`
	FornecedorNome string          `json:"fornecedorNome"`
	DataEmissao    time.Time       `json:"dataEmissao"`
	ValorTotal     decimal.Decimal `json:"valorTotal"`
	ProdutosCount  int             `json:"produtosCount"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// NfeHistoryResponse historial paginado de importaciones.
type NfeHistoryResponse struct {
	Imports []NfeImportSummary `json:"imports"`
	Page    PageResponse       `json:"page"`
}
