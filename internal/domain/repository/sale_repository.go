package repository

import (
	"time"

	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para Sale y sus items.
type SaleRepository interface {
	// Create persiste la venta con sus items (misma transacción si el Querier es una tx).
	Create(sale *entity.Sale) error
	GetByID(id, establishmentID string) (*entity.Sale, error)
	GetByEstablishmentAndNumero(establishmentID string, numero int64) (*entity.Sale, error)
	// NextNumero devuelve el siguiente consecutivo de venta del establecimiento (último + 1).
	NextNumero(establishmentID string) (int64, error)
	UpdateStatus(id, status string) error
	ListByEstablishment(establishmentID string, limit, offset int) ([]*entity.Sale, error)
	// ListUpdatedSince devuelve ventas con UpdatedAt estrictamente mayor a since,
	// ordenadas ascendentemente por UpdatedAt (contrato del pull incremental).
	ListUpdatedSince(establishmentID string, since time.Time) ([]*entity.Sale, error)
	LastUpdatedAt(establishmentID string) (*time.Time, error)
	// CountUnsynced cuenta ventas con Sincronizado = false.
	CountUnsynced(establishmentID string) (int, error)
}
