package dto

import (
	"time"

	"github.com/jhoicas/prestamos-api/internal/domain/loan"
)

// OpenDraftRequest apertura de un borrador de préstamo.
type OpenDraftRequest struct {
	Mode string `json:"mode"` // manual | scan
}

// ValidateRequestorRequest DNI a validar.
type ValidateRequestorRequest struct {
	DNI string `json:"dni"`
}

// UpdateDraftRequest campos del formulario; los nil no se modifican.
type UpdateDraftRequest struct {
	Reason              *string    `json:"reason"`
	AssociatedEvent     *string    `json:"associated_event"`
	ExternalLocation    *string    `json:"external_location"`
	Notes               *string    `json:"notes"`
	ScheduledReturnDate *time.Time `json:"scheduled_return_date"`
}

// AddItemRequest ítem leído por código de barras o tipeado.
type AddItemRequest struct {
	Code string `json:"code"`
}

// UpdateItemRequest cambios sobre una línea del carrito.
type UpdateItemRequest struct {
	Quantity         *int    `json:"quantity"`
	ExitConditionID  *int64  `json:"exit_condition_id"`
	ExitObservations *string `json:"exit_observations"`
}

// WindowResponse rango permitido de fecha de devolución.
type WindowResponse struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

// OverridePrompt pregunta al operador si presta igualmente a una persona en lista negra.
type OverridePrompt struct {
	Message string `json:"message"`
}

// DraftResponse vista del borrador.
type DraftResponse struct {
	ID                  string             `json:"id"`
	Mode                loan.Mode          `json:"mode"`
	Requestor           loan.Requestor     `json:"requestor"`
	RequestorError      string             `json:"requestor_error,omitempty"`
	Reason              string             `json:"reason"`
	AssociatedEvent     string             `json:"associated_event"`
	ExternalLocation    string             `json:"external_location"`
	Notes               string             `json:"notes"`
	ScheduledReturnDate time.Time          `json:"scheduled_return_date"`
	Window              WindowResponse     `json:"window"`
	Items               []loan.ScannedItem `json:"items"`
	PendingOverride     *OverridePrompt    `json:"pending_override,omitempty"`
	Warning             string             `json:"warning,omitempty"`
}

// SubmitResponse resultado del envío. Con RequiresConfirmation el préstamo no se creó y el
// operador debe confirmar o cancelar.
type SubmitResponse struct {
	RequiresConfirmation bool            `json:"requires_confirmation"`
	Prompt               *OverridePrompt `json:"prompt,omitempty"`
	Loan                 *LoanResponse   `json:"loan,omitempty"`
	Next                 string          `json:"next,omitempty"`
}
