package nfe

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MalformedDocumentError indica un problema estructural del XML: sin nodo raíz
// reconocible o sin cabecera infNFe. No es reintentable; el caller debe tratar
// cualquier parse fallido como "nada importado".
type MalformedDocumentError struct {
	Reason string
	Err    error
}

func (e *MalformedDocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("nfe: documento malformado: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("nfe: documento malformado: %s", e.Reason)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

// Document resultado normalizado del parse de una NF-e. Transitorio: se produce
// una vez por documento y es propiedad del caller.
type Document struct {
	Info          InfoGeral          `json:"info"`
	Fornecedor    Fornecedor         `json:"fornecedor"`
	Produtos      []ProdutoExtraido  `json:"produtos"`
	TotalProdutos int                `json:"totalProdutos"`
}

// InfoGeral cabecera del documento fiscal.
type InfoGeral struct {
	// ChaveAcesso son exactamente los 44 caracteres del identificador fiscal,
	// sin el prefijo "NFe" del atributo Id. Es la clave de dedup aguas abajo.
	ChaveAcesso      string          `json:"chaveAcesso"`
	Numero           string          `json:"numero"`
	Serie            string          `json:"serie"`
	Modelo           string          `json:"modelo"`
	DataEmissao      time.Time       `json:"dataEmissao"`
	ValorTotal       decimal.Decimal `json:"valorTotal"`
	NaturezaOperacao string          `json:"naturezaOperacao,omitempty"`
}

// Fornecedor datos del emitente de la NF-e.
type Fornecedor struct {
	CNPJ              string    `json:"cnpj"`
	Nome              string    `json:"nome"`
	RazaoSocial       string    `json:"razaoSocial,omitempty"`
	InscricaoEstadual string    `json:"inscricaoEstadual,omitempty"`
	Endereco          *Endereco `json:"endereco,omitempty"`
}

// Endereco dirección postal del emitente; cada campo es independientemente opcional.
type Endereco struct {
	Logradouro  string `json:"logradouro,omitempty"`
	Numero      string `json:"numero,omitempty"`
	Complemento string `json:"complemento,omitempty"`
	Bairro      string `json:"bairro,omitempty"`
	Municipio   string `json:"municipio,omitempty"`
	UF          string `json:"uf,omitempty"`
	CEP         string `json:"cep,omitempty"`
}

// ProdutoExtraido línea de producto extraída del documento.
type ProdutoExtraido struct {
	Codigo        string          `json:"codigo"`
	EAN           string          `json:"ean,omitempty"`
	Nome          string          `json:"nome"`
	Descricao     string          `json:"descricao,omitempty"`
	NCM           string          `json:"ncm,omitempty"`
	CEST          string          `json:"cest,omitempty"`
	CFOP          string          `json:"cfop,omitempty"`
	Unidade       string          `json:"unidade"`
	Quantidade    decimal.Decimal `json:"quantidade"`
	PrecoUnitario decimal.Decimal `json:"precoUnitario"`
	ValorTotal    decimal.Decimal `json:"valorTotal"`
	Impostos      *Impostos       `json:"impostos,omitempty"`
}

// Impostos desglose tributario de una línea. Cada tributo es opcional: si el
// nodo no existe en el XML, el bloque entero queda ausente (no cero-rellenado).
type Impostos struct {
	ICMS   *Tributo `json:"icms,omitempty"`
	PIS    *Tributo `json:"pis,omitempty"`
	COFINS *Tributo `json:"cofins,omitempty"`
}

// TaxVariant identifica la variante de régimen tributario encontrada en el XML.
// Cada tributo aparece con exactamente una variante viva (ICMS00, ICMS10, ...,
// PISAliq, COFINSOutr, etc.); la extracción toma la única hija presente.
type TaxVariant string

// Variantes conocidas de ICMS (regime normal y Simples Nacional).
const (
	ICMS00    TaxVariant = "ICMS00"
	ICMS10    TaxVariant = "ICMS10"
	ICMS20    TaxVariant = "ICMS20"
	ICMS30    TaxVariant = "ICMS30"
	ICMS40    TaxVariant = "ICMS40"
	ICMS51    TaxVariant = "ICMS51"
	ICMS60    TaxVariant = "ICMS60"
	ICMS70    TaxVariant = "ICMS70"
	ICMS90    TaxVariant = "ICMS90"
	ICMSSN101 TaxVariant = "ICMSSN101"
	ICMSSN102 TaxVariant = "ICMSSN102"
	ICMSSN500 TaxVariant = "ICMSSN500"
	ICMSSN900 TaxVariant = "ICMSSN900"
)

// Variantes conocidas de PIS y COFINS.
const (
	PISAliq    TaxVariant = "PISAliq"
	PISQtde    TaxVariant = "PISQtde"
	PISNT      TaxVariant = "PISNT"
	PISOutr    TaxVariant = "PISOutr"
	COFINSAliq TaxVariant = "COFINSAliq"
	COFINSQtde TaxVariant = "COFINSQtde"
	COFINSNT   TaxVariant = "COFINSNT"
	COFINSOutr TaxVariant = "COFINSOutr"
)

// Tributo alícuota y valor de un tributo. Aliquota/Valor nil significan "la
// fuente no declara el dato", distinto de una tasa conocida de cero.
type Tributo struct {
	Variante TaxVariant       `json:"variante,omitempty"`
	Aliquota *decimal.Decimal `json:"aliquota,omitempty"`
	Valor    *decimal.Decimal `json:"valor,omitempty"`
}

// Validation resultado del pre-chequeo barato de un XML.
// Un documento puede pasar Validate y aun así fallar Parse en una anomalía
// estructural más profunda: Validate es un filtro rápido, Parse es autoritativo.
type Validation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}
