package entity

import "time"

// Establishment representa un establecimiento comercial (tenant). Cada terminal
// PDV pertenece a un establecimiento y sincroniza únicamente sus datos.
type Establishment struct {
	ID        string
	Name      string
	CNPJ      string // identificación fiscal del establecimiento
	Address   string
	Phone     string
	Status    string // active, suspended, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}
