package repository

import (
	"time"

	"github.com/jhoicas/precios-api/internal/domain/entity"
)

// AdjustmentRepository define el puerto de persistencia para Adjustment.
// La tabla es append-mostly: Create inserta cabecera + snapshots; Update solo
// toca los campos de estado/reversión con chequeo optimista de versión
// (domain.ErrConcurrency si la versión cargada ya no es la vigente).
type AdjustmentRepository interface {
	Create(adjustment *entity.Adjustment) error
	GetByID(id string) (*entity.Adjustment, error)
	Update(adjustment *entity.Adjustment) error
	ListAll(limit, offset int) ([]*entity.Adjustment, error)
	ListByState(state string) ([]*entity.Adjustment, error)

	// DueForActivation devuelve temporales SCHEDULED con valid_from <= now;
	// DueForFinalization devuelve temporales ACTIVE con valid_to <= now.
	// Ambas alimentan el sweep periódico.
	DueForActivation(now time.Time) ([]*entity.Adjustment, error)
	DueForFinalization(now time.Time) ([]*entity.Adjustment, error)

	// OpenTemporalProductIDs devuelve los IDs de producto (del conjunto dado)
	// que ya participan en un temporal SCHEDULED o ACTIVE. Sostiene la regla de
	// exclusividad: un ajuste activo por producto a la vez.
	OpenTemporalProductIDs(productIDs []string) ([]string, error)
}
