package usecase

import (
	"context"

	"github.com/tu-usuario/pdv-pro/internal/domain/repository"
)

// SaleTxRunner ejecuta el callback con repos atados a una misma transacción.
// La creación y la cancelación de ventas tocan sales, sale_items y el stock
// de products, y deben confirmar o revertir como una unidad.
type SaleTxRunner interface {
	Run(ctx context.Context, fn func(
		saleRepo repository.SaleRepository,
		productRepo repository.ProductRepository,
	) error) error
}
