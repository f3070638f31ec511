package entity

import "time"

// Tipos de entidad y acciones admitidas en la cola de sincronización local.
const (
	QueueEntityProduct = "product"
	QueueEntitySale    = "sale"

	QueueActionCreate = "create"
	QueueActionUpdate = "update"
)

// SyncQueueItem mutación local pendiente de subir al servidor. Vive solo en la
// base SQLite del terminal. Nunca se borra automáticamente: el historial queda
// como pista de auditoría y los items consumidos se marcan Synced.
type SyncQueueItem struct {
	ID         int64
	EntityType string // product | sale
	Action     string // create | update
	Payload    string // entidad serializada en JSON
	Synced     bool
	RetryCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
