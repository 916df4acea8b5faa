package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/precios-api/internal/domain"
	"github.com/jhoicas/precios-api/internal/domain/entity"
	"github.com/jhoicas/precios-api/internal/domain/pricing"
	"github.com/jhoicas/precios-api/internal/domain/repository"
	"github.com/jhoicas/precios-api/pkg/clock"
	"github.com/jhoicas/precios-api/pkg/logger"
)

// TemporalInput entrada para programar un ajuste temporal.
type TemporalInput struct {
	AdjustmentInput
	TemporalType string
	ValidFrom    time.Time
	ValidTo      time.Time
}

// TemporalUseCase maneja el ciclo de vida SCHEDULED → ACTIVE → FINISHED de los
// ajustes temporales. Crear no muta ningún precio; Activate aplica los "after";
// Finalize restaura los "before". Activate y Finalize son idempotentes frente a
// reintentos y a la carrera entre una acción manual y el sweep.
type TemporalUseCase struct {
	txRunner TxRunner
	audit    repository.AuditRepository
	clk      clock.Clock
	log      *logger.Logger
}

// NewTemporalUseCase construye el caso de uso.
func NewTemporalUseCase(txRunner TxRunner, audit repository.AuditRepository, clk clock.Clock, log *logger.Logger) *TemporalUseCase {
	return &TemporalUseCase{txRunner: txRunner, audit: audit, clk: clk, log: log}
}

// Create programa el ajuste: captura snapshots con before = precios vivos y
// after = cálculo, pero no escribe ningún precio. El registro queda SCHEDULED.
func (uc *TemporalUseCase) Create(ctx context.Context, in TemporalInput) (*entity.Adjustment, error) {
	if err := pricing.ValidatePercentage(in.Percentage); err != nil {
		return nil, err
	}
	if !in.ValidFrom.Before(in.ValidTo) {
		return nil, domain.ErrInvalidInput
	}
	ids, err := normalizeProductIDs(in.ProductIDs)
	if err != nil {
		return nil, err
	}

	now := uc.clk.Now()
	validFrom := in.ValidFrom
	validTo := in.ValidTo
	record := &entity.Adjustment{
		ID:           uuid.New().String(),
		AppliedAt:    now,
		AppliedBy:    in.UserID,
		Percentage:   in.Percentage,
		IsIncrease:   in.IsIncrease,
		Description:  in.Description,
		IsTemporal:   true,
		TemporalType: in.TemporalType,
		ValidFrom:    &validFrom,
		ValidTo:      &validTo,
		State:        entity.TemporalStateScheduled,
	}

	err = uc.txRunner.Run(ctx, func(
		products repository.ProductRepository,
		adjustments repository.AdjustmentRepository,
	) error {
		// Los locks de fila solo estabilizan la lectura de los "before";
		// aquí no se escribe ningún precio.
		snapshots, err := stageSnapshots(products, ids, in.Percentage, in.IsIncrease)
		if err != nil {
			return err
		}
		// Exclusividad con las filas ya bloqueadas: quien compite por el mismo
		// producto espera el lock y entonces ve el temporal ya confirmado.
		if err := checkNoOpenTemporal(adjustments, ids); err != nil {
			return err
		}
		record.Snapshots = snapshots
		return adjustments.Create(record)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("adjustment_id", record.ID).
		Str("temporal_type", in.TemporalType).
		Time("valid_from", in.ValidFrom).
		Time("valid_to", in.ValidTo).
		Msg("ajuste temporal programado")
	recordAudit(uc.log, uc.audit, entity.AuditActionSchedule, record.ID,
		fmt.Sprintf("temporal %q %s%% sobre %d productos", in.TemporalType, in.Percentage.String(), len(record.Snapshots)),
		in.UserID, now)

	return record, nil
}

// Activate aplica los precios "after" del registro SCHEDULED y lo pasa a ACTIVE.
// Sobre un registro ya ACTIVE es un no-op exitoso (disparo duplicado tolerado);
// sobre FINISHED o un permanente retorna domain.ErrInvalidState.
func (uc *TemporalUseCase) Activate(ctx context.Context, recordID, userID string) (*entity.Adjustment, error) {
	now := uc.clk.Now()
	var record *entity.Adjustment
	var noop bool

	err := uc.txRunner.Run(ctx, func(
		products repository.ProductRepository,
		adjustments repository.AdjustmentRepository,
	) error {
		a, err := adjustments.GetByID(recordID)
		if err != nil {
			return err
		}
		if a == nil {
			return domain.ErrNotFound
		}
		if a.CanNoOpActivate() {
			record, noop = a, true
			return nil
		}
		if err := a.Activate(); err != nil {
			return err
		}
		if err := lockSnapshotProducts(products, a.Snapshots); err != nil {
			return err
		}
		if err := writeAfter(products, a.Snapshots, now); err != nil {
			return err
		}
		if err := adjustments.Update(a); err != nil {
			return err
		}
		record = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	if noop {
		uc.log.Debug().Str("adjustment_id", recordID).Msg("activate sobre registro ya activo, no-op")
		return record, nil
	}

	uc.log.Info().Str("adjustment_id", record.ID).Msg("ajuste temporal activado")
	recordAudit(uc.log, uc.audit, entity.AuditActionActivate, record.ID,
		fmt.Sprintf("temporal activado sobre %d productos", len(record.Snapshots)),
		userID, now)
	return record, nil
}

// Finalize restaura los precios "before" de un registro ACTIVE y lo pasa a
// FINISHED (terminal). Finalizar un SCHEDULED es error: restauraría precios
// que nunca se aplicaron. allowFinished lo usa el sweep para tolerar la
// carrera con una finalización manual como no-op.
func (uc *TemporalUseCase) Finalize(ctx context.Context, recordID, userID string) (*entity.Adjustment, error) {
	return uc.finalize(ctx, recordID, userID, false)
}

// FinalizeIdempotent es Finalize pero trata FINISHED como no-op exitoso.
// Lo usa el sweep, que puede reintentar un registro ya finalizado a mano.
func (uc *TemporalUseCase) FinalizeIdempotent(ctx context.Context, recordID, userID string) (*entity.Adjustment, error) {
	return uc.finalize(ctx, recordID, userID, true)
}

func (uc *TemporalUseCase) finalize(ctx context.Context, recordID, userID string, allowFinished bool) (*entity.Adjustment, error) {
	now := uc.clk.Now()
	var record *entity.Adjustment
	var noop bool

	err := uc.txRunner.Run(ctx, func(
		products repository.ProductRepository,
		adjustments repository.AdjustmentRepository,
	) error {
		a, err := adjustments.GetByID(recordID)
		if err != nil {
			return err
		}
		if a == nil {
			return domain.ErrNotFound
		}
		if allowFinished && a.IsTemporal && a.State == entity.TemporalStateFinished {
			record, noop = a, true
			return nil
		}
		if err := a.Finalize(userID, now); err != nil {
			return err
		}
		if err := lockSnapshotProducts(products, a.Snapshots); err != nil {
			return err
		}
		if err := writeBefore(products, a.Snapshots, now); err != nil {
			return err
		}
		if err := adjustments.Update(a); err != nil {
			return err
		}
		record = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	if noop {
		uc.log.Debug().Str("adjustment_id", recordID).Msg("finalize sobre registro ya finalizado, no-op")
		return record, nil
	}

	uc.log.Info().Str("adjustment_id", record.ID).Msg("ajuste temporal finalizado, precios restaurados")
	recordAudit(uc.log, uc.audit, entity.AuditActionFinalize, record.ID,
		fmt.Sprintf("temporal finalizado, %d productos restaurados", len(record.Snapshots)),
		userID, now)
	return record, nil
}
