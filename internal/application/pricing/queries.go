package pricing

import (
	"github.com/jhoicas/precios-api/internal/domain"
	"github.com/jhoicas/precios-api/internal/domain/entity"
	"github.com/jhoicas/precios-api/internal/domain/repository"
)

// QueryUseCase consultas de solo lectura sobre el historial de ajustes.
type QueryUseCase struct {
	adjustments repository.AdjustmentRepository
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(adjustments repository.AdjustmentRepository) *QueryUseCase {
	return &QueryUseCase{adjustments: adjustments}
}

// GetByID devuelve un registro con sus snapshots, o domain.ErrNotFound.
func (uc *QueryUseCase) GetByID(id string) (*entity.Adjustment, error) {
	a, err := uc.adjustments.GetByID(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

// History devuelve el historial completo ordenado por applied_at descendente.
func (uc *QueryUseCase) History(limit, offset int) ([]*entity.Adjustment, error) {
	return uc.adjustments.ListAll(limit, offset)
}

// ByState devuelve los temporales en el estado dado.
func (uc *QueryUseCase) ByState(state string) ([]*entity.Adjustment, error) {
	switch state {
	case entity.TemporalStateScheduled, entity.TemporalStateActive, entity.TemporalStateFinished:
		return uc.adjustments.ListByState(state)
	default:
		return nil, domain.ErrInvalidInput
	}
}
