// Package pricing contiene el cálculo puro de precios por porcentaje.
// Lo usan por igual el motor de ajustes y la simulación, de modo que una
// vista previa coincide bit a bit con la aplicación real.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/precios-api/internal/domain"
	"github.com/jhoicas/precios-api/internal/domain/entity"
)

var (
	oneHundred = decimal.NewFromInt(100)
	one        = decimal.NewFromInt(1)
)

// ValidatePercentage exige 0 < percentage <= 100.
func ValidatePercentage(percentage decimal.Decimal) error {
	if percentage.LessThanOrEqual(decimal.Zero) || percentage.GreaterThan(oneHundred) {
		return domain.ErrInvalidInput
	}
	return nil
}

// Factor devuelve el multiplicador 1 ± percentage/100.
func Factor(percentage decimal.Decimal, isIncrease bool) decimal.Decimal {
	delta := percentage.Div(oneHundred)
	if isIncrease {
		return one.Add(delta)
	}
	return one.Sub(delta)
}

// Compute aplica el porcentaje a los tres precios de forma independiente,
// redondeando cada uno a 2 decimales (mitad lejos de cero, igual que la
// presentación de moneda del resto del sistema). Función pura y determinista.
func Compute(before entity.PriceSet, percentage decimal.Decimal, isIncrease bool) (entity.PriceSet, error) {
	if err := ValidatePercentage(percentage); err != nil {
		return entity.PriceSet{}, err
	}
	factor := Factor(percentage, isIncrease)
	// decimal.Round redondea mitad lejos de cero.
	return entity.PriceSet{
		Cost: before.Cost.Mul(factor).Round(2),
		Cash: before.Cash.Mul(factor).Round(2),
		List: before.List.Mul(factor).Round(2),
	}, nil
}
