package agent

import (
	"context"
	"time"

	"github.com/tu-usuario/pdv-pro/internal/application/dto"
	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
)

// LocalStore puerto hacia la base local del terminal (SQLite).
type LocalStore interface {
	ListPending(entityType string) ([]*entity.SyncQueueItem, error)
	MarkSynced(ids []int64) error
	IncrementRetry(id int64) error
	UpsertProduct(p *entity.Product) error
	SaveSale(s *entity.Sale) error
	MarkSaleSynced(numero int64) error
	Watermark(key string) (time.Time, error)
	SetWatermark(key string, t time.Time) error
	PendingCount() (int, error)
}

// RemoteAPI puerto hacia el servidor central.
type RemoteAPI interface {
	Login(ctx context.Context) error
	PushProducts(ctx context.Context, in dto.SyncProductsRequest) (*dto.SyncResponse, error)
	PushSales(ctx context.Context, in dto.SyncSalesRequest) (*dto.SyncResponse, error)
	PullProducts(ctx context.Context, since time.Time) (*dto.PullProductsResponse, error)
	PullSales(ctx context.Context, since time.Time) (*dto.PullSalesResponse, error)
	Status(ctx context.Context) (*dto.SyncStatusResponse, error)
}
