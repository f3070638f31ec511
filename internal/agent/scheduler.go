package agent

import (
	"context"
	"errors"
	"time"

	"github.com/tu-usuario/pdv-pro/pkg/logger"
)

// Scheduler dispara el ciclo de sincronización cada intervalo y cuando el
// terminal recupera conectividad. Los disparos mientras hay un ciclo activo
// se descartan (SyncAll es single-flight).
type Scheduler struct {
	orch     *Orchestrator
	interval time.Duration
	trigger  chan struct{}
	done     chan struct{}
	log      *logger.Logger
}

// NewScheduler construye el scheduler.
func NewScheduler(orch *Orchestrator, interval time.Duration, log *logger.Logger) *Scheduler {
	return &Scheduler{
		orch:     orch,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		log:      log.Component("scheduler"),
	}
}

// Run ejecuta el loop hasta que el contexto se cancele. Corre un ciclo
// inmediato al arrancar y luego uno por tick o por Trigger.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.trigger:
			s.runOnce(ctx)
		}
	}
}

// Trigger solicita un ciclo fuera de horario (ej. al volver la conexión).
// No bloquea: si ya hay un disparo encolado, se descarta.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Wait bloquea hasta que Run termine.
func (s *Scheduler) Wait() {
	<-s.done
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.orch.SyncAll(ctx); err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			return
		}
		s.log.Warn().Err(err).Msg("ciclo de sincronización fallido")
	}
}
