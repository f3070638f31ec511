package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin    = "admin"
	RoleGerente  = "gerente"
	RoleOperador = "operador"
)

// User representa un usuario del sistema (pertenece a un Establishment).
type User struct {
	ID              string
	EstablishmentID string
	Email           string
	PasswordHash    string // bcrypt hash, nunca plano en dominio después de persistir
	Name            string
	Role            string // admin, gerente, operador
	Status          string // active, inactive, suspended
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
