package entity

import "time"

// Acciones registradas en el log de auditoría del motor de precios.
const (
	AuditActionApply    = "APPLY"
	AuditActionSchedule = "SCHEDULE"
	AuditActionActivate = "ACTIVATE"
	AuditActionFinalize = "FINALIZE"
	AuditActionRevert   = "REVERT"
)

// AuditEntry es una línea del log de auditoría. Su escritura es best-effort:
// un fallo al auditar nunca deshace un cambio de precios.
type AuditEntry struct {
	ID        string
	Entity    string // "adjustment"
	Action    string
	Key       string // ID del registro afectado
	Detail    string
	UserID    string
	CreatedAt time.Time
}
