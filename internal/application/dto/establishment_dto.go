package dto

import "time"

// CreateEstablishmentRequest entrada para crear un establecimiento.
type CreateEstablishmentRequest struct {
	Name    string `json:"name"`
	CNPJ    string `json:"cnpj"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// EstablishmentResponse salida de un establecimiento.
type EstablishmentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CNPJ      string    `json:"cnpj"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EstablishmentListResponse lista paginada de establecimientos.
type EstablishmentListResponse struct {
	Items []EstablishmentResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}
