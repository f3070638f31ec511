package repository

import "github.com/tu-usuario/pdv-pro/internal/domain/entity"

// EstablishmentRepository define el puerto de persistencia para Establishment.
type EstablishmentRepository interface {
	Create(est *entity.Establishment) error
	GetByID(id string) (*entity.Establishment, error)
	List(limit, offset int) ([]*entity.Establishment, error)
}
