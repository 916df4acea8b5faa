package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/precios-api/internal/domain"
	"github.com/jhoicas/precios-api/internal/domain/entity"
	"github.com/jhoicas/precios-api/internal/domain/repository"
)

var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

// AdjustmentRepo implementación de AdjustmentRepository (usable con pool o tx).
// Cabecera en price_adjustments, snapshots ordenados en price_adjustment_snapshots.
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

const adjustmentColumns = `id, applied_at, applied_by, percentage, is_increase, description,
	is_temporal, temporal_type, valid_from, valid_to, state,
	reverted, reverted_at, reverted_by, version`

// Create persiste la cabecera del ajuste y sus snapshots en orden.
func (r *AdjustmentRepo) Create(a *entity.Adjustment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	query := `
		INSERT INTO price_adjustments (id, applied_at, applied_by, percentage, is_increase, description,
			is_temporal, temporal_type, valid_from, valid_to, state,
			reverted, reverted_at, reverted_by, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(context.Background(), query,
		a.ID, a.AppliedAt, a.AppliedBy, a.Percentage, a.IsIncrease, a.Description,
		a.IsTemporal, nullIfEmpty(a.TemporalType), a.ValidFrom, a.ValidTo, nullIfEmpty(a.State),
		a.Reverted, a.RevertedAt, nullIfEmpty(a.RevertedBy), a.Version,
	)
	if err != nil {
		return fmt.Errorf("insert adjustment: %w", err)
	}
	for i, s := range a.Snapshots {
		if err := r.createSnapshot(a.ID, i, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *AdjustmentRepo) createSnapshot(adjustmentID string, position int, s entity.PriceSnapshot) error {
	query := `
		INSERT INTO price_adjustment_snapshots (id, adjustment_id, position, product_id, product_name,
			cost_before, cash_before, list_before, cost_after, cash_after, list_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		uuid.New().String(), adjustmentID, position, s.ProductID, s.ProductName,
		s.Before.Cost, s.Before.Cash, s.Before.List,
		s.After.Cost, s.After.Cash, s.After.List,
	)
	if err != nil {
		return fmt.Errorf("insert adjustment snapshot: %w", err)
	}
	return nil
}

// GetByID obtiene un ajuste con sus snapshots, o nil si no existe.
func (r *AdjustmentRepo) GetByID(id string) (*entity.Adjustment, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM price_adjustments WHERE id = $1`
	a, err := r.scanAdjustment(r.q.QueryRow(context.Background(), query, id))
	if err != nil || a == nil {
		return a, err
	}
	if err := r.loadSnapshots(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Update actualiza solo los campos mutables (estado/reversión) con chequeo
// optimista de versión. Si la versión cargada ya no es la vigente (otra
// operación ganó la carrera) retorna domain.ErrConcurrency y no toca nada.
func (r *AdjustmentRepo) Update(a *entity.Adjustment) error {
	query := `
		UPDATE price_adjustments
		SET state = $2, reverted = $3, reverted_at = $4, reverted_by = $5, version = version + 1
		WHERE id = $1 AND version = $6`
	cmd, err := r.q.Exec(context.Background(), query,
		a.ID, nullIfEmpty(a.State), a.Reverted, a.RevertedAt, nullIfEmpty(a.RevertedBy), a.Version,
	)
	if err != nil {
		return fmt.Errorf("update adjustment: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConcurrency
	}
	a.Version++
	return nil
}

// ListAll devuelve el historial paginado, ordenado por applied_at descendente.
func (r *AdjustmentRepo) ListAll(limit, offset int) ([]*entity.Adjustment, error) {
	query := `SELECT ` + adjustmentColumns + `
		FROM price_adjustments ORDER BY applied_at DESC LIMIT $1 OFFSET $2`
	return r.queryAdjustments(query, limit, offset)
}

// ListByState devuelve los temporales en el estado dado, más próximos a vencer primero.
func (r *AdjustmentRepo) ListByState(state string) ([]*entity.Adjustment, error) {
	query := `SELECT ` + adjustmentColumns + `
		FROM price_adjustments WHERE is_temporal AND state = $1 ORDER BY valid_to ASC`
	return r.queryAdjustments(query, state)
}

// DueForActivation devuelve temporales SCHEDULED cuya ventana ya comenzó.
func (r *AdjustmentRepo) DueForActivation(now time.Time) ([]*entity.Adjustment, error) {
	query := `SELECT ` + adjustmentColumns + `
		FROM price_adjustments
		WHERE is_temporal AND state = $1 AND valid_from <= $2
		ORDER BY valid_from ASC`
	return r.queryAdjustments(query, entity.TemporalStateScheduled, now)
}

// DueForFinalization devuelve temporales ACTIVE cuya ventana ya expiró.
func (r *AdjustmentRepo) DueForFinalization(now time.Time) ([]*entity.Adjustment, error) {
	query := `SELECT ` + adjustmentColumns + `
		FROM price_adjustments
		WHERE is_temporal AND state = $1 AND valid_to <= $2
		ORDER BY valid_to ASC`
	return r.queryAdjustments(query, entity.TemporalStateActive, now)
}

// OpenTemporalProductIDs devuelve los IDs de producto del conjunto dado que
// aparecen en algún temporal SCHEDULED o ACTIVE.
func (r *AdjustmentRepo) OpenTemporalProductIDs(productIDs []string) ([]string, error) {
	query := `
		SELECT DISTINCT s.product_id
		FROM price_adjustment_snapshots s
		JOIN price_adjustments a ON a.id = s.adjustment_id
		WHERE a.is_temporal AND a.state IN ($1, $2) AND s.product_id = ANY($3)`
	rows, err := r.q.Query(context.Background(), query,
		entity.TemporalStateScheduled, entity.TemporalStateActive, productIDs)
	if err != nil {
		return nil, fmt.Errorf("query open temporal products: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *AdjustmentRepo) queryAdjustments(query string, args ...any) ([]*entity.Adjustment, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query adjustments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Adjustment
	for rows.Next() {
		a, err := r.scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, a := range list {
		if err := r.loadSnapshots(a); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *AdjustmentRepo) scanAdjustment(row pgx.Row) (*entity.Adjustment, error) {
	var a entity.Adjustment
	var temporalType, state, revertedBy *string
	err := row.Scan(
		&a.ID, &a.AppliedAt, &a.AppliedBy, &a.Percentage, &a.IsIncrease, &a.Description,
		&a.IsTemporal, &temporalType, &a.ValidFrom, &a.ValidTo, &state,
		&a.Reverted, &a.RevertedAt, &revertedBy, &a.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan adjustment: %w", err)
	}
	if temporalType != nil {
		a.TemporalType = *temporalType
	}
	if state != nil {
		a.State = *state
	}
	if revertedBy != nil {
		a.RevertedBy = *revertedBy
	}
	return &a, nil
}

func (r *AdjustmentRepo) loadSnapshots(a *entity.Adjustment) error {
	query := `
		SELECT product_id, product_name,
			cost_before, cash_before, list_before,
			cost_after, cash_after, list_after
		FROM price_adjustment_snapshots
		WHERE adjustment_id = $1
		ORDER BY position ASC`
	rows, err := r.q.Query(context.Background(), query, a.ID)
	if err != nil {
		return fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s entity.PriceSnapshot
		if err := rows.Scan(&s.ProductID, &s.ProductName,
			&s.Before.Cost, &s.Before.Cash, &s.Before.List,
			&s.After.Cost, &s.After.Cash, &s.After.List); err != nil {
			return fmt.Errorf("scan snapshot: %w", err)
		}
		a.Snapshots = append(a.Snapshots, s)
	}
	return rows.Err()
}
