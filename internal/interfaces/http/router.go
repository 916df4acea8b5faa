package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/precios-api/internal/application/auth"
	appricing "github.com/jhoicas/precios-api/internal/application/pricing"
	"github.com/jhoicas/precios-api/internal/application/usecase"
	"github.com/jhoicas/precios-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC  *usecase.ProductUseCase
	ApplyUC    *appricing.ApplyPermanentUseCase
	TemporalUC *appricing.TemporalUseCase
	RevertUC   *appricing.RevertUseCase
	SimulateUC *appricing.SimulateUseCase
	QueryUC    *appricing.QueryUseCase
	AuthUC     *auth.AuthUseCase
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Products (protegido)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", RequireRole(entity.RoleAdmin), productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)

	// Adjustments (protegido; las mutaciones exigen rol admin)
	adjustments := protected.Group("/adjustments")
	adjustmentHandler := NewAdjustmentHandler(deps.ApplyUC, deps.TemporalUC, deps.RevertUC, deps.SimulateUC, deps.QueryUC)
	adjustments.Post("/simulate", adjustmentHandler.Simulate)
	adjustments.Post("/temporal", RequireRole(entity.RoleAdmin), adjustmentHandler.CreateTemporal)
	adjustments.Post("/temporal/:id/activate", RequireRole(entity.RoleAdmin), adjustmentHandler.Activate)
	adjustments.Post("/temporal/:id/finalize", RequireRole(entity.RoleAdmin), adjustmentHandler.Finalize)
	adjustments.Post("/:id/revert", RequireRole(entity.RoleAdmin), adjustmentHandler.Revert)
	adjustments.Post("/", RequireRole(entity.RoleAdmin), adjustmentHandler.Apply)
	adjustments.Get("/", adjustmentHandler.History)
	adjustments.Get("/:id", adjustmentHandler.GetByID)
}
