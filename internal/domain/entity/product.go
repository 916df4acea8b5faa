package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSet agrupa los tres precios de un producto: costo, contado y lista.
// Todos con 2 decimales de precisión (NUMERIC(10,2) en la base).
type PriceSet struct {
	Cost decimal.Decimal
	Cash decimal.Decimal
	List decimal.Decimal
}

// Equal compara los tres precios valor a valor.
func (p PriceSet) Equal(other PriceSet) bool {
	return p.Cost.Equal(other.Cost) && p.Cash.Equal(other.Cash) && p.List.Equal(other.List)
}

// Product representa un producto del catálogo con sus tres precios.
// El motor de ajustes es el único que muta los precios en bloque;
// la taxonomía (rubro/marca/subrubro) vive fuera de este servicio.
type Product struct {
	ID        string
	SKU       string // código único
	Name      string
	CostPrice decimal.Decimal
	CashPrice decimal.Decimal
	ListPrice decimal.Decimal
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Prices devuelve los tres precios actuales como PriceSet.
func (p *Product) Prices() PriceSet {
	return PriceSet{Cost: p.CostPrice, Cash: p.CashPrice, List: p.ListPrice}
}

// SetPrices reemplaza los tres precios.
func (p *Product) SetPrices(prices PriceSet) {
	p.CostPrice = prices.Cost
	p.CashPrice = prices.Cash
	p.ListPrice = prices.List
}
