package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tu-usuario/pdv-pro/internal/application/auth"
	syncapp "github.com/tu-usuario/pdv-pro/internal/application/sync"
	"github.com/tu-usuario/pdv-pro/internal/application/usecase"
	"github.com/tu-usuario/pdv-pro/internal/domain/nfe"
	"github.com/tu-usuario/pdv-pro/internal/infrastructure/postgres"
	"github.com/tu-usuario/pdv-pro/internal/infrastructure/realtime"
	httpRouter "github.com/tu-usuario/pdv-pro/internal/interfaces/http"
	"github.com/tu-usuario/pdv-pro/pkg/config"
	"github.com/tu-usuario/pdv-pro/pkg/logger"
)

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
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando servidor central")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	establishmentRepo := postgres.NewEstablishmentRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	nfeImportRepo := postgres.NewNfeImportRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Hub WebSocket para eventos en tiempo real hacia los terminales conectados.
	hub := realtime.NewHub(cfg.HTTP.RealtimeAddr(), cfg.JWT.Secret, log)
	if err := hub.Start(); err != nil {
		log.Fatal().Err(err).Msg("hub de eventos")
	}
	defer func() {
		if err := hub.Stop(); err != nil {
			log.Error().Err(err).Msg("apagado del hub de eventos")
		}
	}()

	establishmentUC := usecase.NewEstablishmentUseCase(establishmentRepo)
	productUC := usecase.NewProductUseCase(productRepo)
	saleUC := usecase.NewSaleUseCase(txRunner, saleRepo, hub, log)
	nfeUC := usecase.NewNfeUseCase(nfe.NewParser(), nfeImportRepo, log)
	syncUC := syncapp.NewUseCase(productRepo, saleRepo, hub, log)
	authUC := auth.NewAuthUseCase(userRepo, establishmentRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "PDV Pro API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		EstablishmentUC: establishmentUC,
		ProductUC:       productUC,
		SaleUC:          saleUC,
		NfeUC:           nfeUC,
		SyncUC:          syncUC,
		AuthUC:          authUC,
		JWTSecret:       cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("servidor detenido")
}
