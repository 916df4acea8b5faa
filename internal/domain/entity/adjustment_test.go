package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/precios-api/internal/domain"
)

func newTemporal(state string) *Adjustment {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(48 * time.Hour)
	return &Adjustment{
		ID:           "adj-1",
		Percentage:   decimal.NewFromInt(10),
		IsIncrease:   true,
		IsTemporal:   true,
		TemporalType: "oferta",
		ValidFrom:    &from,
		ValidTo:      &to,
		State:        state,
	}
}

func TestActivateDesdeScheduled(t *testing.T) {
	a := newTemporal(TemporalStateScheduled)
	require.NoError(t, a.Activate())
	assert.Equal(t, TemporalStateActive, a.State)
}

func TestActivateEstadosInvalidos(t *testing.T) {
	active := newTemporal(TemporalStateActive)
	assert.ErrorIs(t, active.Activate(), domain.ErrInvalidState)
	assert.True(t, active.CanNoOpActivate())

	finished := newTemporal(TemporalStateFinished)
	assert.ErrorIs(t, finished.Activate(), domain.ErrInvalidState)
	assert.False(t, finished.CanNoOpActivate())

	permanente := &Adjustment{ID: "adj-p", Percentage: decimal.NewFromInt(5)}
	assert.ErrorIs(t, permanente.Activate(), domain.ErrInvalidState)
	assert.False(t, permanente.CanNoOpActivate())
}

func TestFinalizeDesdeActive(t *testing.T) {
	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
	a := newTemporal(TemporalStateActive)

	require.NoError(t, a.Finalize("user-1", now))
	assert.Equal(t, TemporalStateFinished, a.State)
	assert.True(t, a.Reverted)
	require.NotNil(t, a.RevertedAt)
	assert.Equal(t, now, *a.RevertedAt)
	assert.Equal(t, "user-1", a.RevertedBy)
}

func TestFinalizeEstadosInvalidos(t *testing.T) {
	now := time.Now()

	scheduled := newTemporal(TemporalStateScheduled)
	assert.ErrorIs(t, scheduled.Finalize("user-1", now), domain.ErrInvalidState)
	assert.Equal(t, TemporalStateScheduled, scheduled.State)
	assert.False(t, scheduled.Reverted)

	// FINISHED es terminal: no se finaliza dos veces.
	finished := newTemporal(TemporalStateFinished)
	assert.ErrorIs(t, finished.Finalize("user-1", now), domain.ErrInvalidState)

	permanente := &Adjustment{ID: "adj-p"}
	assert.ErrorIs(t, permanente.Finalize("user-1", now), domain.ErrInvalidState)
}

func TestRevertPermanente(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	a := &Adjustment{ID: "adj-p", Percentage: decimal.NewFromInt(10)}

	require.NoError(t, a.Revert("user-2", now))
	assert.True(t, a.Reverted)
	require.NotNil(t, a.RevertedAt)
	assert.Equal(t, now, *a.RevertedAt)
	assert.Equal(t, "user-2", a.RevertedBy)

	// Segunda reversión rechazada sin tocar los sellos.
	err := a.Revert("user-3", now.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrAlreadyReverted)
	assert.Equal(t, "user-2", a.RevertedBy)
	assert.Equal(t, now, *a.RevertedAt)
}

func TestRevertTemporalAbiertos(t *testing.T) {
	now := time.Now()

	// Un temporal vigente se deshace vía Finalize, no por Revert.
	scheduled := newTemporal(TemporalStateScheduled)
	assert.ErrorIs(t, scheduled.Revert("user-1", now), domain.ErrInvalidState)

	active := newTemporal(TemporalStateActive)
	assert.ErrorIs(t, active.Revert("user-1", now), domain.ErrInvalidState)

	// Un temporal FINISHED ya quedó revertido al finalizar.
	finished := newTemporal(TemporalStateActive)
	require.NoError(t, finished.Finalize("user-1", now))
	assert.ErrorIs(t, finished.Revert("user-2", now), domain.ErrAlreadyReverted)
}

func TestCicloCompletoTemporal(t *testing.T) {
	now := time.Now()
	a := newTemporal(TemporalStateScheduled)

	require.NoError(t, a.Activate())
	require.NoError(t, a.Finalize("user-1", now))
	assert.Equal(t, TemporalStateFinished, a.State)

	// Terminal: ninguna transición posterior es válida.
	assert.ErrorIs(t, a.Activate(), domain.ErrInvalidState)
	assert.ErrorIs(t, a.Finalize("user-1", now), domain.ErrInvalidState)
	assert.ErrorIs(t, a.Revert("user-1", now), domain.ErrAlreadyReverted)
}
