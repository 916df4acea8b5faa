package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/precios-api/internal/domain/entity"
	"github.com/jhoicas/precios-api/internal/infrastructure/postgres"
	"github.com/jhoicas/precios-api/pkg/config"
	"github.com/jhoicas/precios-api/pkg/logger"
)

// Seed inicial: ejecuta las migraciones y crea el usuario admin junto con
// productos de demostración. Pensado para entornos de desarrollo.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	migration, err := os.ReadFile("internal/infrastructure/postgres/migrations/001_init.sql")
	if err != nil {
		log.Fatal().Err(err).Msg("leer migración")
	}
	if _, err := pool.Exec(ctx, string(migration)); err != nil {
		log.Fatal().Err(err).Msg("ejecutar migración")
	}
	log.Info().Msg("migraciones aplicadas")

	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123"
		log.Warn().Msg("SEED_ADMIN_PASSWORD no definido, usando contraseña por defecto")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("hash de contraseña")
	}

	now := time.Now().UTC()
	userRepo := postgres.NewUserRepository(pool)
	admin := &entity.User{
		ID:           uuid.NewString(),
		Email:        "admin@precios.local",
		PasswordHash: string(hash),
		Name:         "Administrador",
		Role:         entity.RoleAdmin,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := userRepo.Create(admin); err != nil {
		log.Warn().Err(err).Msg("crear usuario admin (¿ya existe?)")
	} else {
		log.Info().Str("email", admin.Email).Msg("usuario admin creado")
	}

	productRepo := postgres.NewProductRepository(pool)
	demo := []struct {
		sku, name        string
		cost, cash, list string
	}{
		{"DEMO-001", "Arroz premium 1kg", "3200.00", "4100.00", "4500.00"},
		{"DEMO-002", "Aceite vegetal 900ml", "8500.00", "10900.00", "11900.00"},
		{"DEMO-003", "Panela redonda 500g", "2100.00", "2800.00", "3000.00"},
		{"DEMO-004", "Café molido 250g", "7800.00", "9900.00", "10500.00"},
	}
	for _, d := range demo {
		p := &entity.Product{
			ID:        uuid.NewString(),
			SKU:       d.sku,
			Name:      d.name,
			CostPrice: decimal.RequireFromString(d.cost),
			CashPrice: decimal.RequireFromString(d.cash),
			ListPrice: decimal.RequireFromString(d.list),
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := productRepo.Create(p); err != nil {
			log.Warn().Err(err).Str("sku", d.sku).Msg("crear producto demo (¿ya existe?)")
			continue
		}
		log.Info().Str("sku", d.sku).Msg("producto demo creado")
	}

	log.Info().Msg("seed completado")
}
