package usecase

import (
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/pdv-pro/internal/application/dto"
	"github.com/tu-usuario/pdv-pro/internal/domain"
	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
	"github.com/tu-usuario/pdv-pro/internal/domain/repository"
)

// EstablishmentUseCase aplica reglas de negocio para establecimientos.
type EstablishmentUseCase struct {
	repo repository.EstablishmentRepository
}

// NewEstablishmentUseCase construye el caso de uso con el puerto de persistencia.
func NewEstablishmentUseCase(repo repository.EstablishmentRepository) *EstablishmentUseCase {
	return &EstablishmentUseCase{repo: repo}
}

// Create crea un establecimiento. Genera ID y estado inicial. Devuelve
// domain.ErrDuplicate si el CNPJ ya está registrado.
func (uc *EstablishmentUseCase) Create(in dto.CreateEstablishmentRequest) (*dto.EstablishmentResponse, error) {
	if in.Name == "" || in.CNPJ == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	est := &entity.Establishment{
		ID:        uuid.New().String(),
		Name:      in.Name,
		CNPJ:      in.CNPJ,
		Address:   in.Address,
		Phone:     in.Phone,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(est); err != nil {
		return nil, err
	}
	return entityToEstablishmentResponse(est), nil
}

// GetByID obtiene un establecimiento por ID.
func (uc *EstablishmentUseCase) GetByID(id string) (*dto.EstablishmentResponse, error) {
	est, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if est == nil {
		return nil, domain.ErrNotFound
	}
	return entityToEstablishmentResponse(est), nil
}

// List lista establecimientos con paginación.
func (uc *EstablishmentUseCase) List(limit, offset int) (*dto.EstablishmentListResponse, error) {
	list, err := uc.repo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.EstablishmentResponse, 0, len(list))
	for _, e := range list {
		items = append(items, *entityToEstablishmentResponse(e))
	}
	return &dto.EstablishmentListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func entityToEstablishmentResponse(e *entity.Establishment) *dto.EstablishmentResponse {
	if e == nil {
		return nil
	}
	return &dto.EstablishmentResponse{
		ID:        e.ID,
		Name:      e.Name,
		CNPJ:      e.CNPJ,
		Address:   e.Address,
		Phone:     e.Phone,
		Status:    e.Status,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
