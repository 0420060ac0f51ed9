package dto

import (
	"time"

	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

// LoanDetailResponse línea de un préstamo.
type LoanDetailResponse struct {
	ID                 int64   `json:"id"`
	ItemID             int64   `json:"item_id"`
	ExitConditionID    int64   `json:"exit_condition_id"`
	ExitObservations   string  `json:"exit_observations"`
	ReturnConditionID  *int64  `json:"return_condition_id,omitempty"`
	ReturnObservations *string `json:"return_observations,omitempty"`
	Quantity           int     `json:"quantity"`
}

// LoanResponse préstamo tal como se muestra al operador.
type LoanResponse struct {
	ID                  int64                `json:"id"`
	Code                string               `json:"code"`
	Status              entity.LoanStatus    `json:"status"`
	RequestDate         time.Time            `json:"request_date"`
	DeliveryDate        *time.Time           `json:"delivery_date,omitempty"`
	ScheduledReturnDate time.Time            `json:"scheduled_return_date"`
	ActualReturnDate    *time.Time           `json:"actual_return_date,omitempty"`
	RequestorID         int64                `json:"requestor_id"`
	Reason              string               `json:"reason"`
	AssociatedEvent     string               `json:"associated_event,omitempty"`
	ExternalLocation    string               `json:"external_location,omitempty"`
	Notes               string               `json:"notes,omitempty"`
	Details             []LoanDetailResponse `json:"details"`
}

// LoanListResponse estado del listado: vista persistida más los datos transitorios.
type LoanListResponse struct {
	Status  entity.LoanStatus `json:"status,omitempty"`
	Search  string            `json:"search,omitempty"`
	Items   []LoanResponse    `json:"items"`
	Page    PageResponse      `json:"page"`
	Loading bool              `json:"loading"`
	Error   string            `json:"error,omitempty"`
}

// ToLoanResponse convierte la entidad a la respuesta HTTP.
func ToLoanResponse(l *entity.Loan) *LoanResponse {
	if l == nil {
		return nil
	}
	details := make([]LoanDetailResponse, 0, len(l.Details))
	for _, d := range l.Details {
		details = append(details, LoanDetailResponse{
			ID:                 d.ID,
			ItemID:             d.ItemID,
			ExitConditionID:    d.ExitConditionID,
			ExitObservations:   d.ExitObservations,
			ReturnConditionID:  d.ReturnConditionID,
			ReturnObservations: d.ReturnObservations,
			Quantity:           d.Quantity,
		})
	}
	return &LoanResponse{
		ID:                  l.ID,
		Code:                l.Code,
		Status:              l.Status,
		RequestDate:         l.RequestDate,
		DeliveryDate:        l.DeliveryDate,
		ScheduledReturnDate: l.ScheduledReturnDate,
		ActualReturnDate:    l.ActualReturnDate,
		RequestorID:         l.RequestorID,
		Reason:              l.Reason,
		AssociatedEvent:     l.AssociatedEvent,
		ExternalLocation:    l.ExternalLocation,
		Notes:               l.Notes,
		Details:             details,
	}
}
