package nfe

import "strings"

// placeholderSemGTIN es el literal que la SEFAZ usa cuando el producto no tiene
// código de barras.
const placeholderSemGTIN = "SEM GTIN"

// NormalizeEAN limpia un código EAN extraído del XML. Devuelve "" (ausente) si
// el valor es el placeholder "SEM GTIN", vacío, solo ceros o menor a 8
// caracteres — códigos conocidamente inválidos que no deben entrar al catálogo.
func NormalizeEAN(ean string) string {
	clean := strings.TrimSpace(ean)
	if clean == "" || clean == placeholderSemGTIN {
		return ""
	}
	if len(clean) < 8 {
		return ""
	}
	if isAllZeros(clean) {
		return ""
	}
	return clean
}

func isAllZeros(s string) bool {
	for _, r := range s {
		if r != '0' {
			return false
		}
	}
	return true
}
