package repository

import (
	"time"

	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
)

// NfeImportFilter filtros del historial de importaciones.
type NfeImportFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
}

// NfeImportRepository define el puerto de persistencia para importaciones de NF-e.
type NfeImportRepository interface {
	Create(imp *entity.NfeImport) error
	GetByID(id, establishmentID string) (*entity.NfeImport, error)
	// GetByChaveAcesso deduplica por chave de acesso dentro del establecimiento.
	GetByChaveAcesso(establishmentID, chaveAcesso string) (*entity.NfeImport, error)
	// ListByEstablishment devuelve la página y el total para el filtro dado.
	ListByEstablishment(establishmentID string, filter NfeImportFilter, limit, offset int) ([]*entity.NfeImport, int, error)
}
