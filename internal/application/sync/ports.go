package sync

import "github.com/tu-usuario/pdv-pro/internal/domain/entity"

// Notifier puerto de salida para notificaciones en tiempo real por canal de
// establecimiento. Entrega at-least-once y no bloqueante desde la perspectiva
// del caller; un fallo de notificación nunca es un fallo de sincronización.
type Notifier interface {
	NotifyProductUpdated(establishmentID string, product *entity.Product)
	NotifyNewSale(establishmentID string, sale *entity.Sale)
	NotifySyncStatus(establishmentID, status, message string)
}

// NopNotifier implementación nula para tests o despliegues sin canal realtime.
type NopNotifier struct{}

func (NopNotifier) NotifyProductUpdated(string, *entity.Product) {}
func (NopNotifier) NotifyNewSale(string, *entity.Sale)           {}
func (NopNotifier) NotifySyncStatus(string, string, string)      {}
