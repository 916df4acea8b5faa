package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/precios-api/internal/domain/entity"
	"github.com/jhoicas/precios-api/internal/domain/pricing"
	"github.com/jhoicas/precios-api/internal/domain/repository"
	"github.com/jhoicas/precios-api/pkg/clock"
	"github.com/jhoicas/precios-api/pkg/logger"
)

// ApplyPermanentUseCase aplica un ajuste porcentual permanente a un lote de
// productos: snapshot → cálculo → escritura → registro, todo en una sola
// transacción. Si algún producto no resuelve o alguna escritura falla, el lote
// completo se revierte y no se persiste ningún registro.
type ApplyPermanentUseCase struct {
	txRunner TxRunner
	audit    repository.AuditRepository
	clk      clock.Clock
	log      *logger.Logger
}

// NewApplyPermanentUseCase construye el caso de uso.
func NewApplyPermanentUseCase(txRunner TxRunner, audit repository.AuditRepository, clk clock.Clock, log *logger.Logger) *ApplyPermanentUseCase {
	return &ApplyPermanentUseCase{txRunner: txRunner, audit: audit, clk: clk, log: log}
}

// Execute aplica el ajuste y devuelve el registro persistido.
func (uc *ApplyPermanentUseCase) Execute(ctx context.Context, in AdjustmentInput) (*entity.Adjustment, error) {
	if err := pricing.ValidatePercentage(in.Percentage); err != nil {
		return nil, err
	}
	ids, err := normalizeProductIDs(in.ProductIDs)
	if err != nil {
		return nil, err
	}

	now := uc.clk.Now()
	record := &entity.Adjustment{
		ID:          uuid.New().String(),
		AppliedAt:   now,
		AppliedBy:   in.UserID,
		Percentage:  in.Percentage,
		IsIncrease:  in.IsIncrease,
		Description: in.Description,
	}

	err = uc.txRunner.Run(ctx, func(
		products repository.ProductRepository,
		adjustments repository.AdjustmentRepository,
	) error {
		snapshots, err := stageSnapshots(products, ids, in.Percentage, in.IsIncrease)
		if err != nil {
			return err
		}
		// La exclusividad se verifica con las filas ya bloqueadas: un creador
		// concurrente sobre el mismo producto espera el lock y al consultar ve
		// el registro ya confirmado. Antes de los locks la lectura correría
		// contra un snapshot viejo y dos lotes podrían pasar a la vez.
		if err := checkNoOpenTemporal(adjustments, ids); err != nil {
			return err
		}
		if err := writeAfter(products, snapshots, now); err != nil {
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
		Int("products", len(record.Snapshots)).
		Str("percentage", in.Percentage.String()).
		Bool("is_increase", in.IsIncrease).
		Msg("ajuste permanente aplicado")
	recordAudit(uc.log, uc.audit, entity.AuditActionApply, record.ID,
		fmt.Sprintf("ajuste permanente %s%% sobre %d productos", in.Percentage.String(), len(record.Snapshots)),
		in.UserID, now)

	return record, nil
}
