package pricing

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/precios-api/internal/domain"
	"github.com/jhoicas/precios-api/internal/domain/entity"
	"github.com/jhoicas/precios-api/internal/domain/pricing"
	"github.com/jhoicas/precios-api/internal/domain/repository"
	"github.com/jhoicas/precios-api/pkg/logger"
)

// AdjustmentInput entrada común para aplicar/programar un ajuste.
type AdjustmentInput struct {
	ProductIDs  []string
	Percentage  decimal.Decimal
	IsIncrease  bool
	Description string
	UserID      string
}

// normalizeProductIDs valida que haya al menos un ID, deduplica y ordena.
// El orden es el orden de bloqueo de filas: bloquear siempre en orden
// lexicográfico evita deadlocks entre lotes que se solapan.
func normalizeProductIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, domain.ErrInvalidInput
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			return nil, domain.ErrInvalidInput
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// stageSnapshots lee cada producto con bloqueo de fila y calcula su snapshot
// before/after. No escribe nada: la fase de staging es pura salvo los locks.
func stageSnapshots(
	products repository.ProductRepository,
	ids []string,
	percentage decimal.Decimal,
	isIncrease bool,
) ([]entity.PriceSnapshot, error) {
	snapshots := make([]entity.PriceSnapshot, 0, len(ids))
	for _, id := range ids {
		p, err := products.GetForUpdate(id)
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
		snapshots = append(snapshots, entity.PriceSnapshot{
			ProductID:   p.ID,
			ProductName: p.Name,
			Before:      before,
			After:       after,
		})
	}
	return snapshots, nil
}

// writeAfter escribe los precios "after" de cada snapshot en su producto.
func writeAfter(products repository.ProductRepository, snapshots []entity.PriceSnapshot, now time.Time) error {
	for _, s := range snapshots {
		if err := products.UpdatePrices(s.ProductID, s.After, now); err != nil {
			return err
		}
	}
	return nil
}

// writeBefore restaura los precios "before" de cada snapshot en su producto.
func writeBefore(products repository.ProductRepository, snapshots []entity.PriceSnapshot, now time.Time) error {
	for _, s := range snapshots {
		if err := products.UpdatePrices(s.ProductID, s.Before, now); err != nil {
			return err
		}
	}
	return nil
}

// lockSnapshotProducts bloquea las filas de los productos de un ajuste ya
// persistido, en orden lexicográfico, y verifica que todos sigan existiendo.
func lockSnapshotProducts(products repository.ProductRepository, snapshots []entity.PriceSnapshot) error {
	ids := make([]string, 0, len(snapshots))
	for _, s := range snapshots {
		ids = append(ids, s.ProductID)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p, err := products.GetForUpdate(id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
	}
	return nil
}

// checkNoOpenTemporal rechaza el lote si algún producto ya participa en un
// temporal SCHEDULED/ACTIVE. Regla de exclusividad: un ajuste vigente por
// producto a la vez. Debe llamarse con las filas de productos ya bloqueadas
// (después de stageSnapshots): bajo READ COMMITTED una lectura previa a los
// locks no vería un temporal confirmado mientras se esperaba el lock.
func checkNoOpenTemporal(adjustments repository.AdjustmentRepository, ids []string) error {
	busy, err := adjustments.OpenTemporalProductIDs(ids)
	if err != nil {
		return err
	}
	if len(busy) > 0 {
		return domain.ErrConflict
	}
	return nil
}

// recordAudit escribe una entrada de auditoría best-effort fuera de la
// transacción del lote. Un fallo aquí se loguea y se traga.
func recordAudit(log *logger.Logger, audit repository.AuditRepository, action, key, detail, userID string, now time.Time) {
	entry := &entity.AuditEntry{
		ID:        uuid.New().String(),
		Entity:    "adjustment",
		Action:    action,
		Key:       key,
		Detail:    detail,
		UserID:    userID,
		CreatedAt: now,
	}
	if err := audit.Create(entry); err != nil {
		log.Warn().Err(err).
			Str("action", action).
			Str("adjustment_id", key).
			Msg("auditoría: no se pudo registrar la entrada")
	}
}
