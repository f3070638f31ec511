package nfe

import (
	"io"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/htmlindex"
)

// Parser extrae los datos comerciales de una NF-e (XML semi-estructurado con
// múltiples variantes). Puro y sin estado: seguro para usar concurrentemente
// sobre documentos independientes.
type Parser struct{}

// NewParser construye el parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parsea el XML de la NF-e y devuelve el documento normalizado.
// Falla con *MalformedDocumentError si el XML no parsea, si no se encuentra un
// nodo raíz reconocible (nfeProc envolvente, NFe o nfe) o si falta infNFe.
func (p *Parser) Parse(rawXML string) (*Document, error) {
	root, err := p.parseTree(rawXML)
	if err != nil {
		return nil, err
	}

	infNFe := childFold(root, "infNFe")
	if infNFe == nil {
		return nil, &MalformedDocumentError{Reason: "no encontrado nó infNFe"}
	}

	info := extractInfoGeral(infNFe)
	fornecedor := extractFornecedor(childFold(infNFe, "emit"))
	produtos := extractProdutos(infNFe)
	info.ValorTotal = extractValorTotal(infNFe)

	return &Document{
		Info:          info,
		Fornecedor:    fornecedor,
		Produtos:      produtos,
		TotalProdutos: len(produtos),
	}, nil
}

// Validate pre-chequeo barato: confirma que el texto contiene "nfe" y que el
// árbol parsea con una de las tres raíces reconocidas. No recorre items ni
// impostos; un documento válido aquí aún puede fallar Parse más adentro.
func (p *Parser) Validate(rawXML string) Validation {
	clean := cleanXML(rawXML)
	if !strings.Contains(strings.ToLower(clean), "nfe") {
		return Validation{Valid: false, Error: "XML não é uma NF-e válida"}
	}
	if _, err := p.parseTree(rawXML); err != nil {
		return Validation{Valid: false, Error: err.Error()}
	}
	return Validation{Valid: true}
}

// parseTree parsea el XML y localiza el nodo NFe probando, en orden: envoltorio
// nfeProc, nodo NFe directo, variante nfe en minúsculas. Primer match gana.
func (p *Parser) parseTree(rawXML string) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromString(cleanXML(rawXML)); err != nil {
		return nil, &MalformedDocumentError{Reason: "XML não parseável", Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &MalformedDocumentError{Reason: "não encontrado nó NFe"}
	}
	if strings.EqualFold(root.Tag, "nfeProc") {
		if nfe := childFold(root, "NFe"); nfe != nil {
			return nfe, nil
		}
		return nil, &MalformedDocumentError{Reason: "não encontrado nó NFe"}
	}
	if strings.EqualFold(root.Tag, "NFe") {
		return root, nil
	}
	return nil, &MalformedDocumentError{Reason: "não encontrado nó NFe"}
}

// cleanXML remueve BOM y espacios al inicio/fin.
func cleanXML(raw string) string {
	return strings.TrimPrefix(strings.TrimSpace(raw), "\uFEFF")
}

// charsetReader permite leer NF-e guardadas en ISO-8859-1 u otros charsets
// declarados en la cabecera XML.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, err
	}
	return enc.NewDecoder().Reader(input), nil
}

// ── Cabecera ──────────────────────────────────────────────────────────────────

func extractInfoGeral(infNFe *etree.Element) InfoGeral {
	ide := childFold(infNFe, "ide")

	return InfoGeral{
		ChaveAcesso:      extractChaveAcesso(infNFe),
		Numero:           childTextFold(ide, "nNF"),
		Serie:            textOrDefault(childTextFold(ide, "serie"), "1"),
		Modelo:           textOrDefault(childTextFold(ide, "mod"), "55"),
		DataEmissao:      parseDate(firstNonEmpty(childTextFold(ide, "dhEmi"), childTextFold(ide, "dEmi"))),
		NaturezaOperacao: childTextFold(ide, "natOp"),
	}
}

// extractChaveAcesso toma el atributo Id (o id) del infNFe y remueve el prefijo
// textual "NFe" pegado al identificador, case-insensitive. Lo que queda son
// exactamente los 44 caracteres del identificador fiscal.
func extractChaveAcesso(infNFe *etree.Element) string {
	id := infNFe.SelectAttrValue("Id", "")
	if id == "" {
		id = infNFe.SelectAttrValue("id", "")
	}
	if len(id) >= 3 && strings.EqualFold(id[:3], "NFe") {
		id = id[3:]
	}
	return id
}

func extractValorTotal(infNFe *etree.Element) decimal.Decimal {
	total := childFold(infNFe, "total")
	icmsTot := childFold(total, "ICMSTot")
	return parseDecimal(childTextFold(icmsTot, "vNF"))
}

// ── Fornecedor (emitente) ─────────────────────────────────────────────────────

func extractFornecedor(emit *etree.Element) Fornecedor {
	f := Fornecedor{
		// CNPJ de empresa preferido; CPF de persona física como fallback
		CNPJ:              firstNonEmpty(childTextFold(emit, "CNPJ"), childTextFold(emit, "CPF")),
		Nome:              firstNonEmpty(childTextFold(emit, "xFant"), childTextFold(emit, "xNome")),
		RazaoSocial:       childTextFold(emit, "xNome"),
		InscricaoEstadual: childTextFold(emit, "IE"),
	}
	if ender := childFold(emit, "enderEmit"); ender != nil {
		f.Endereco = &Endereco{
			Logradouro:  childTextFold(ender, "xLgr"),
			Numero:      childTextFold(ender, "nro"),
			Complemento: childTextFold(ender, "xCpl"),
			Bairro:      childTextFold(ender, "xBairro"),
			Municipio:   childTextFold(ender, "xMun"),
			UF:          childTextFold(ender, "UF"),
			CEP:         childTextFold(ender, "CEP"),
		}
	}
	return f
}

// ── Produtos ──────────────────────────────────────────────────────────────────

// extractProdutos normaliza el contenedor det a una secuencia sin importar si
// el documento trae un item único o varios.
func extractProdutos(infNFe *etree.Element) []ProdutoExtraido {
	dets := childrenFold(infNFe, "det")
	produtos := make([]ProdutoExtraido, 0, len(dets))
	for _, det := range dets {
		produtos = append(produtos, extractProduto(det))
	}
	return produtos
}

func extractProduto(det *etree.Element) ProdutoExtraido {
	prod := childFold(det, "prod")
	nome := childTextFold(prod, "xProd")

	item := ProdutoExtraido{
		Codigo:    childTextFold(prod, "cProd"),
		EAN:       NormalizeEAN(firstNonEmpty(childTextFold(prod, "cEAN"), childTextFold(prod, "cEANTrib"))),
		Nome:      nome,
		Descricao: nome,
		NCM:       childTextFold(prod, "NCM"),
		CEST:      childTextFold(prod, "CEST"),
		CFOP:      childTextFold(prod, "CFOP"),
		Unidade:   textOrDefault(firstNonEmpty(childTextFold(prod, "uCom"), childTextFold(prod, "uTrib")), "UN"),
		// Los documentos varían en cuál campo viene poblado: comercial primero,
		// tributável como fallback.
		Quantidade:    parseDecimal(firstNonEmpty(childTextFold(prod, "qCom"), childTextFold(prod, "qTrib"))),
		PrecoUnitario: parseDecimal(firstNonEmpty(childTextFold(prod, "vUnCom"), childTextFold(prod, "vUnTrib"))),
		ValorTotal:    parseDecimal(childTextFold(prod, "vProd")),
	}

	if imposto := childFold(det, "imposto"); imposto != nil {
		item.Impostos = &Impostos{
			ICMS:   extractTributo(childFold(imposto, "ICMS"), "pICMS", "vICMS"),
			PIS:    extractTributo(childFold(imposto, "PIS"), "pPIS", "vPIS"),
			COFINS: extractTributo(childFold(imposto, "COFINS"), "pCOFINS", "vCOFINS"),
		}
	}
	return item
}

// extractTributo lee la única variante viva del tributo (ICMS00, ICMS10,
// PISAliq, ...) y extrae alícuota y valor. Un parse cero o ausente se trata
// como "sin dato" (nil), no como tasa cero conocida.
func extractTributo(node *etree.Element, rateField, amountField string) *Tributo {
	if node == nil {
		return nil
	}
	children := node.ChildElements()
	if len(children) == 0 {
		return nil
	}
	variant := children[0]
	return &Tributo{
		Variante: TaxVariant(variant.Tag),
		Aliquota: parseOptionalDecimal(childTextFold(variant, rateField)),
		Valor:    parseOptionalDecimal(childTextFold(variant, amountField)),
	}
}

// ── Helpers de árbol ──────────────────────────────────────────────────────────

// childFold devuelve el primer hijo cuyo tag coincide case-insensitive.
// Tolera receptor nil para encadenar búsquedas sobre nodos opcionales.
func childFold(e *etree.Element, tag string) *etree.Element {
	if e == nil {
		return nil
	}
	for _, c := range e.ChildElements() {
		if strings.EqualFold(c.Tag, tag) {
			return c
		}
	}
	return nil
}

// childrenFold devuelve todos los hijos cuyo tag coincide case-insensitive.
func childrenFold(e *etree.Element, tag string) []*etree.Element {
	if e == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if strings.EqualFold(c.Tag, tag) {
			out = append(out, c)
		}
	}
	return out
}

func childTextFold(e *etree.Element, tag string) string {
	c := childFold(e, tag)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Text())
}

// ── Helpers de coerción ───────────────────────────────────────────────────────

// La coerción numérica es por campo, nunca automática en el árbol: así se
// controla el redondeo y los defaults.

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseOptionalDecimal devuelve nil para vacío, no parseable o cero: una fuente
// silenciosa no implica tasa cero conocida.
func parseOptionalDecimal(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsZero() {
		return nil
	}
	return &d
}

// parseDate acepta los dos formatos de emissão (dhEmi con zona, dEmi solo
// fecha). Si ninguno parsea cae a la hora actual: fallback con pérdida,
// preferible a rechazar el documento completo por una fecha rota.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Now()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func textOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
