package nfe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tu-usuario/pdv-pro/internal/domain/nfe"
)

func TestNormalizeEAN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"placeholder SEM GTIN", "SEM GTIN", ""},
		{"vacío", "", ""},
		{"solo ceros", "0000000", ""},
		{"solo ceros largo", "0000000000000", ""},
		{"muy corto", "1234", ""},
		{"siete dígitos", "1234567", ""},
		{"EAN-8 válido", "12345670", "12345670"},
		{"EAN-13 válido", "7891234567890", "7891234567890"},
		{"con espacios alrededor", "  7891234567890  ", "7891234567890"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nfe.NormalizeEAN(tt.in))
		})
	}
}
