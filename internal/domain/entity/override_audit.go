package entity

import "time"

// OverrideOutcome resultado de una solicitud de préstamo a persona en lista negra.
type OverrideOutcome string

const (
	OverrideConfirmed OverrideOutcome = "CONFIRMED" // reenviado y creado
	OverrideFailed    OverrideOutcome = "FAILED"    // reenviado y rechazado
	OverrideCancelled OverrideOutcome = "CANCELLED"
)

// OverrideAudit registro de la decisión del operador ante un rechazo por lista negra.
type OverrideAudit struct {
	ID          string
	OperatorID  string
	DraftID     string
	RequestorID int64
	DNI         string
	Message     string // texto del rechazo original
	Outcome     OverrideOutcome
	LoanID      *int64
	CreatedAt   time.Time
}
