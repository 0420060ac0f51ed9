package dto

import "github.com/jhoicas/prestamos-api/internal/domain/loan"

// OpenReturnRequest préstamo a devolver.
type OpenReturnRequest struct {
	LoanID int64 `json:"loan_id"`
}

// UpdateReturnRequest notas generales de la devolución.
type UpdateReturnRequest struct {
	Notes *string `json:"notes"`
}

// UpdateReturnItemRequest cambios sobre una línea. QuantityInput es el texto tipeado;
// con Blur=true se aplica el ajuste al salir del campo.
type UpdateReturnItemRequest struct {
	ReturnConditionID  *int64  `json:"return_condition_id"`
	ReturnObservations *string `json:"return_observations"`
	QuantityInput      *string `json:"quantity_input"`
	Blur               bool    `json:"blur"`
}

// DefaulterResponse estado del control de moroso.
type DefaulterResponse struct {
	Defaulter bool `json:"defaulter"`
	InFlight  bool `json:"in_flight"`
	CanMark   bool `json:"can_mark"`
	CanUnmark bool `json:"can_unmark"`
}

// ReturnSessionResponse vista del flujo de devolución.
type ReturnSessionResponse struct {
	ID          string             `json:"id"`
	LoanID      int64              `json:"loan_id"`
	LoanCode    string             `json:"loan_code"`
	State       loan.FlowState     `json:"state"`
	Index       int                `json:"index"`
	Total       int                `json:"total"`
	Current     *loan.ReturnEntry  `json:"current,omitempty"`
	Entries     []loan.ReturnEntry `json:"entries"`
	Notes       string             `json:"notes"`
	HasPrevious bool               `json:"has_previous"`
	HasNext     bool               `json:"has_next"`
	Defaulter   DefaulterResponse  `json:"defaulter"`
}

// ReturnSubmitResponse resultado de la devolución en lote.
type ReturnSubmitResponse struct {
	LoanID int64  `json:"loan_id"`
	Next   string `json:"next"`
}
