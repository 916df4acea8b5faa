// Package worker contiene el barrido periódico de ajustes temporales:
// activa los SCHEDULED cuya ventana comenzó y finaliza los ACTIVE cuya
// ventana expiró. Usa las mismas operaciones idempotentes que las acciones
// manuales, así una carrera sweep/manual no aplica un porcentaje dos veces.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/precios-api/internal/domain"
	"github.com/jhoicas/precios-api/internal/domain/entity"
	"github.com/jhoicas/precios-api/pkg/clock"
	"github.com/jhoicas/precios-api/pkg/logger"
)

// SweepUser identifica al barrido en los campos reverted_by y en auditoría.
const SweepUser = "scheduler"

// adjustmentSource consulta los temporales vencidos. Lo satisface
// repository.AdjustmentRepository atado al pool.
type adjustmentSource interface {
	DueForActivation(now time.Time) ([]*entity.Adjustment, error)
	DueForFinalization(now time.Time) ([]*entity.Adjustment, error)
}

// temporalLifecycle son las transiciones idempotentes del caso de uso temporal.
type temporalLifecycle interface {
	Activate(ctx context.Context, recordID, userID string) (*entity.Adjustment, error)
	FinalizeIdempotent(ctx context.Context, recordID, userID string) (*entity.Adjustment, error)
}

// Sweep recorre el estado persistido en cada tick. No guarda timers en
// memoria: tras un reinicio del proceso la primera pasada recupera todo lo
// que venció mientras el servicio estuvo caído.
type Sweep struct {
	source    adjustmentSource
	lifecycle temporalLifecycle
	clk       clock.Clock
	interval  time.Duration
	log       *logger.Logger
}

// NewSweep construye el barrido.
func NewSweep(source adjustmentSource, lifecycle temporalLifecycle, clk clock.Clock, interval time.Duration, log *logger.Logger) *Sweep {
	return &Sweep{source: source, lifecycle: lifecycle, clk: clk, interval: interval, log: log}
}

// Start lanza la goroutine del barrido. Respeta el contexto para el apagado.
func (s *Sweep) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.log.Info().Dur("interval", s.interval).Msg("sweep: iniciado")

		for {
			select {
			case <-ctx.Done():
				s.log.Info().Msg("sweep: apagando")
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Tick ejecuta una pasada completa: primero activaciones, luego finalizaciones.
// Exportado para poder probarlo de forma determinista con un MockClock.
func (s *Sweep) Tick(ctx context.Context) {
	now := s.clk.Now()

	due, err := s.source.DueForActivation(now)
	if err != nil {
		s.log.Error().Err(err).Msg("sweep: consulta de activaciones pendientes")
	} else {
		for _, a := range due {
			if _, err := s.lifecycle.Activate(ctx, a.ID, SweepUser); err != nil {
				s.logRace(err, a.ID, "activate")
			}
		}
	}

	expired, err := s.source.DueForFinalization(now)
	if err != nil {
		s.log.Error().Err(err).Msg("sweep: consulta de finalizaciones pendientes")
		return
	}
	for _, a := range expired {
		if _, err := s.lifecycle.FinalizeIdempotent(ctx, a.ID, SweepUser); err != nil {
			s.logRace(err, a.ID, "finalize")
		}
	}
}

// logRace degrada a debug los errores esperables de una carrera con una
// acción manual (el otro lado ya hizo la transición); el resto se loguea.
func (s *Sweep) logRace(err error, recordID, op string) {
	if errors.Is(err, domain.ErrConcurrency) || errors.Is(err, domain.ErrInvalidState) {
		s.log.Debug().Err(err).Str("adjustment_id", recordID).Str("op", op).Msg("sweep: transición ya resuelta por otra operación")
		return
	}
	s.log.Error().Err(err).Str("adjustment_id", recordID).Str("op", op).Msg("sweep: transición fallida")
}
