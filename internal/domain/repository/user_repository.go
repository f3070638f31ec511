package repository

import "github.com/tu-usuario/pdv-pro/internal/domain/entity"

// UserRepository define el puerto de persistencia para User.
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id string) (*entity.User, error)
	// FindByEmail devuelve (nil, nil) si no existe.
	FindByEmail(email string) (*entity.User, error)
	GetByEmailAndEstablishment(email, establishmentID string) (*entity.User, error)
}
