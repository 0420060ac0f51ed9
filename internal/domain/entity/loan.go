package entity

import "time"

// LoanStatus estados del préstamo. Las transiciones las decide el backend.
type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "PENDING"
	LoanStatusApproved  LoanStatus = "APPROVED"
	LoanStatusRejected  LoanStatus = "REJECTED"
	LoanStatusDelivered LoanStatus = "DELIVERED"
	LoanStatusReturned  LoanStatus = "RETURNED"
	LoanStatusOverdue   LoanStatus = "OVERDUE"
	LoanStatusCancelled LoanStatus = "CANCELLED"
)

// Valid indica si el estado pertenece a la enumeración cerrada.
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanStatusPending, LoanStatusApproved, LoanStatusRejected, LoanStatusDelivered,
		LoanStatusReturned, LoanStatusOverdue, LoanStatusCancelled:
		return true
	}
	return false
}

// Loan representa una transacción de préstamo de bienes a un solicitante.
type Loan struct {
	ID                     int64
	Code                   string
	RequestDate            time.Time
	ApprovalDate           *time.Time
	DeliveryDate           *time.Time
	ScheduledReturnDate    time.Time
	ActualReturnDate       *time.Time
	Status                 LoanStatus
	RequestorID            int64
	ApproverID             *int64
	Reason                 string
	AssociatedEvent        string
	ExternalLocation       string
	Notes                  string
	ReminderSent           bool
	ResponsibilityDocument bool
	Details                []LoanDetail
}

// LoanDetail una línea del préstamo: un ítem del inventario y su cantidad.
type LoanDetail struct {
	ID                 int64
	LoanID             int64
	ItemID             int64
	ExitConditionID    int64
	ExitObservations   string
	ReturnConditionID  *int64
	ReturnObservations *string
	Quantity           int
}

// ReturnState clasifica los metadatos de devolución de una línea.
type ReturnState int

const (
	ReturnNone    ReturnState = iota // sin condición ni observaciones de devolución
	ReturnPartial                    // solo uno de los dos campos: dato inválido
	ReturnFull
)

// ReturnState indica si los campos de devolución están completos, ausentes o a medias.
func (d LoanDetail) ReturnState() ReturnState {
	hasCond := d.ReturnConditionID != nil
	hasObs := d.ReturnObservations != nil
	switch {
	case hasCond && hasObs:
		return ReturnFull
	case !hasCond && !hasObs:
		return ReturnNone
	default:
		return ReturnPartial
	}
}
