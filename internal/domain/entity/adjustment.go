package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/precios-api/internal/domain"
)

// Estados del ciclo de vida de un ajuste temporal.
// Un ajuste permanente no tiene estado: se considera aplicado desde su creación.
const (
	TemporalStateScheduled = "SCHEDULED"
	TemporalStateActive    = "ACTIVE"
	TemporalStateFinished  = "FINISHED"
)

// PriceSnapshot registra los precios de un producto antes y después de un ajuste.
// Se captura una sola vez por producto por ajuste y es inmutable: es la base
// de la reversión exacta.
type PriceSnapshot struct {
	ProductID   string
	ProductName string
	Before      PriceSet
	After       PriceSet
}

// Adjustment es la unidad de trabajo y de auditoría del motor de precios.
// Los registros nunca se eliminan físicamente; el historial es permanente.
// Solo los campos de estado/reversión mutan después de la creación.
type Adjustment struct {
	ID          string
	AppliedAt   time.Time // creación (permanente) o programación (temporal)
	AppliedBy   string
	Percentage  decimal.Decimal // 0 < percentage <= 100
	IsIncrease  bool
	Description string

	IsTemporal   bool
	TemporalType string     // categoría libre, ej. "Black Friday"
	ValidFrom    *time.Time // solo temporal; ValidFrom < ValidTo
	ValidTo      *time.Time
	State        string // SCHEDULED | ACTIVE | FINISHED; vacío si permanente

	Snapshots []PriceSnapshot // uno por producto afectado, en orden

	Reverted   bool
	RevertedAt *time.Time
	RevertedBy string

	// Version para control optimista en Update (sweep vs acción manual).
	Version int
}

// Activate pasa el ajuste de SCHEDULED a ACTIVE. La escritura de los precios
// "after" en los productos la hace el caso de uso dentro de la misma transacción.
func (a *Adjustment) Activate() error {
	if !a.IsTemporal || a.State != TemporalStateScheduled {
		return domain.ErrInvalidState
	}
	a.State = TemporalStateActive
	return nil
}

// CanNoOpActivate indica si Activate debe ser un no-op exitoso: el registro ya
// está ACTIVE (disparo duplicado por carrera entre acción manual y el sweep).
func (a *Adjustment) CanNoOpActivate() bool {
	return a.IsTemporal && a.State == TemporalStateActive
}

// Finalize pasa el ajuste de ACTIVE a FINISHED y estampa la reversión.
// Finalizar es el equivalente temporal de revertir: un ajuste FINISHED no
// puede revertirse de nuevo. FINISHED es terminal.
func (a *Adjustment) Finalize(user string, now time.Time) error {
	if !a.IsTemporal || a.State != TemporalStateActive {
		return domain.ErrInvalidState
	}
	a.State = TemporalStateFinished
	a.Reverted = true
	a.RevertedAt = &now
	a.RevertedBy = user
	return nil
}

// Revert marca la reversión explícita de un ajuste permanente.
// Un temporal en SCHEDULED/ACTIVE se revierte vía Finalize, nunca por aquí;
// un temporal FINISHED ya quedó revertido al finalizar.
func (a *Adjustment) Revert(user string, now time.Time) error {
	if a.Reverted {
		return domain.ErrAlreadyReverted
	}
	if a.IsTemporal && (a.State == TemporalStateScheduled || a.State == TemporalStateActive) {
		return domain.ErrInvalidState
	}
	a.Reverted = true
	a.RevertedAt = &now
	a.RevertedBy = user
	return nil
}
