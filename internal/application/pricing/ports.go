package pricing

import (
	"context"

	"github.com/jhoicas/precios-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con repositorios atados a la tx.
// Es el mecanismo de lote todo-o-nada del motor: si fn retorna error se hace
// Rollback y ningún producto del lote queda modificado; un registro de ajuste
// solo se persiste si todas las escrituras de precios del lote confirmaron.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		products repository.ProductRepository,
		adjustments repository.AdjustmentRepository,
	) error) error
}
