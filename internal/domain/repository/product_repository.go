package repository

import (
	"time"

	"github.com/jhoicas/precios-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetForUpdate bloquea la fila (SELECT FOR UPDATE) y solo tiene sentido dentro
// de una transacción: es la exclusión mutua por producto del motor de ajustes.
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetForUpdate(id string) (*entity.Product, error)
	UpdatePrices(productID string, prices entity.PriceSet, updatedAt time.Time) error
	List(limit, offset int) ([]*entity.Product, error)
}
