package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/precios-api/internal/domain"
	"github.com/jhoicas/precios-api/internal/domain/entity"
	"github.com/jhoicas/precios-api/internal/domain/pricing"
	"github.com/jhoicas/precios-api/internal/domain/repository"
)

// SimulationLine precios antes/después de un producto en la vista previa.
type SimulationLine struct {
	ProductID   string
	ProductName string
	Before      entity.PriceSet
	After       entity.PriceSet
}

// SimulateUseCase calcula la vista previa de un ajuste sin efectos: misma
// función de cálculo que los motores, así el resultado coincide exactamente
// con lo que Apply/Activate producirían sobre los mismos insumos.
type SimulateUseCase struct {
	products repository.ProductRepository
}

// NewSimulateUseCase construye el caso de uso (solo lectura, sin transacción).
func NewSimulateUseCase(products repository.ProductRepository) *SimulateUseCase {
	return &SimulateUseCase{products: products}
}

// Execute resuelve los precios actuales y devuelve los pares before/after.
func (uc *SimulateUseCase) Execute(productIDs []string, percentage decimal.Decimal, isIncrease bool) ([]SimulationLine, error) {
	if err := pricing.ValidatePercentage(percentage); err != nil {
		return nil, err
	}
	ids, err := normalizeProductIDs(productIDs)
	if err != nil {
		return nil, err
	}

	lines := make([]SimulationLine, 0, len(ids))
	for _, id := range ids {
		p, err := uc.products.GetByID(id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.ErrNotFound
		}
		before := p.Prices()
		after, err := pricing.Compute(before, percentage, isIncrease)
		if err != nil {
			return nil, err
		}
		lines = append(lines, SimulationLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			Before:      before,
			After:       after,
		})
	}
	return lines, nil
}
