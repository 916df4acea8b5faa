package pricing

import (
	"context"
	"fmt"

	"github.com/jhoicas/precios-api/internal/domain"
	"github.com/jhoicas/precios-api/internal/domain/entity"
	"github.com/jhoicas/precios-api/internal/domain/repository"
	"github.com/jhoicas/precios-api/pkg/clock"
	"github.com/jhoicas/precios-api/pkg/logger"
)

// RevertUseCase deshace el efecto de un ajuste permanente usando los snapshots
// guardados: restaura los precios "before" exactos de cada producto del lote.
// Los temporales en SCHEDULED/ACTIVE se revierten vía Finalize, no por aquí.
type RevertUseCase struct {
	txRunner TxRunner
	audit    repository.AuditRepository
	clk      clock.Clock
	log      *logger.Logger
}

// NewRevertUseCase construye el caso de uso.
func NewRevertUseCase(txRunner TxRunner, audit repository.AuditRepository, clk clock.Clock, log *logger.Logger) *RevertUseCase {
	return &RevertUseCase{txRunner: txRunner, audit: audit, clk: clk, log: log}
}

// Execute revierte el registro indicado. Revertir dos veces retorna
// domain.ErrAlreadyReverted sin tocar nada.
func (uc *RevertUseCase) Execute(ctx context.Context, recordID, userID string) (*entity.Adjustment, error) {
	now := uc.clk.Now()
	var record *entity.Adjustment

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
		if err := a.Revert(userID, now); err != nil {
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

	uc.log.Info().
		Str("adjustment_id", record.ID).
		Int("products", len(record.Snapshots)).
		Msg("ajuste revertido, precios restaurados")
	recordAudit(uc.log, uc.audit, entity.AuditActionRevert, record.ID,
		fmt.Sprintf("reversión de %d productos a precios previos", len(record.Snapshots)),
		userID, now)
	return record, nil
}
