package repository

import (
	"time"

	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByEstablishmentAndCodigo resuelve la clave natural usada por la sincronización.
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetByEstablishmentAndCodigo(establishmentID, codigo string) (*entity.Product, error)
	Update(product *entity.Product) error
	// AdjustEstoque suma delta al stock (negativo para descontar) y actualiza UpdatedAt.
	AdjustEstoque(productID string, delta int) error
	ListByEstablishment(establishmentID string, limit, offset int) ([]*entity.Product, error)
	// ListUpdatedSince devuelve productos con UpdatedAt estrictamente mayor a since,
	// ordenados ascendentemente por UpdatedAt (contrato del pull incremental).
	ListUpdatedSince(establishmentID string, since time.Time) ([]*entity.Product, error)
	// LastUpdatedAt devuelve el UpdatedAt más reciente del establecimiento (nil si no hay productos).
	LastUpdatedAt(establishmentID string) (*time.Time, error)
	Delete(id string) error
}
