package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tu-usuario/pdv-pro/internal/agent"
	"github.com/tu-usuario/pdv-pro/internal/infrastructure/api"
	"github.com/tu-usuario/pdv-pro/internal/infrastructure/sqlite"
	"github.com/tu-usuario/pdv-pro/pkg/config"
	"github.com/tu-usuario/pdv-pro/pkg/logger"
)

// El agente corre en el terminal PDV: mantiene la base SQLite local y
// sincroniza periódicamente contra el servidor central.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("server", cfg.Agent.ServerURL).
		Str("db", cfg.Agent.LocalDBPath).
		Dur("interval", cfg.Agent.SyncInterval).
		Msg("iniciando agente de sincronización")

	store, err := sqlite.Open(cfg.Agent.LocalDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir base local")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar base local")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := api.NewClient(cfg.Agent.ServerURL, cfg.Agent.Email, cfg.Agent.Password, log)
	if err := client.Login(ctx); err != nil {
		log.Fatal().Err(err).Msg("login contra el servidor central")
	}

	orch := agent.NewOrchestrator(store, client, log)
	scheduler := agent.NewScheduler(orch, cfg.Agent.SyncInterval, log)

	go scheduler.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, deteniendo agente...")
	cancel()
	scheduler.Wait()

	log.Info().Msg("agente detenido")
}
