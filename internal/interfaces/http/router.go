package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/pdv-pro/internal/application/auth"
	syncapp "github.com/tu-usuario/pdv-pro/internal/application/sync"
	"github.com/tu-usuario/pdv-pro/internal/application/usecase"
	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	EstablishmentUC *usecase.EstablishmentUseCase
	ProductUC       *usecase.ProductUseCase
	SaleUC          *usecase.SaleUseCase
	NfeUC           *usecase.NfeUseCase
	SyncUC          *syncapp.UseCase
	AuthUC          *auth.AuthUseCase
	JWTSecret       string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Establishments (público por ahora; alta inicial de tenants)
	establishments := api.Group("/establishments")
	establishmentHandler := NewEstablishmentHandler(deps.EstablishmentUC)
	establishments.Post("/", establishmentHandler.Create)
	establishments.Get("/", establishmentHandler.List)
	establishments.Get("/:id", establishmentHandler.GetByID)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Products (protegido)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", RequireRole(entity.RoleAdmin, entity.RoleGerente), productHandler.Delete)

	// Sales (protegido)
	sales := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.SaleUC)
	sales.Post("/", saleHandler.Create)
	sales.Get("/", saleHandler.List)
	sales.Get("/:id", saleHandler.GetByID)
	sales.Post("/:id/cancel", RequireRole(entity.RoleAdmin, entity.RoleGerente), saleHandler.Cancel)

	// NF-e (protegido)
	nfeGroup := protected.Group("/nfe")
	nfeHandler := NewNfeHandler(deps.NfeUC)
	nfeGroup.Post("/parse", nfeHandler.Parse)
	nfeGroup.Get("/history", nfeHandler.History)
	nfeGroup.Get("/:id", nfeHandler.GetByID)
	nfeGroup.Get("/:id/xml", nfeHandler.GetXML)

	// Sync (protegido, consumido por los agentes PDV)
	syncGroup := protected.Group("/sync")
	syncHandler := NewSyncHandler(deps.SyncUC)
	syncGroup.Post("/products", syncHandler.PushProducts)
	syncGroup.Get("/products", syncHandler.PullProducts)
	syncGroup.Post("/sales", syncHandler.PushSales)
	syncGroup.Get("/sales", syncHandler.PullSales)
	syncGroup.Get("/status", syncHandler.Status)
}
