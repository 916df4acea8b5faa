package repository

import "github.com/jhoicas/precios-api/internal/domain/entity"

// AuditRepository define el puerto de persistencia del log de auditoría.
// Sus fallos se registran y se tragan: nunca deshacen un cambio de precios.
type AuditRepository interface {
	Create(entry *entity.AuditEntry) error
	List(limit, offset int) ([]*entity.AuditEntry, error)
}
