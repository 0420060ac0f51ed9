package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActaPerson datos del solicitante impresos en el acta.
type ActaPerson struct {
	FullName string
	DNI      string
	Type     string
	Email    string
	Phone    string
}

// ActaLine ítem prestado.
type ActaLine struct {
	Code         string
	Name         string
	Quantity     int
	Condition    string
	Observations string
	UnitValue    decimal.Decimal
	Subtotal     decimal.Decimal
}

// ActaData todo lo necesario para el acta de préstamo.
type ActaData struct {
	LoanCode            string
	Status              string
	RequestDate         time.Time
	ScheduledReturnDate time.Time
	Reason              string
	AssociatedEvent     string
	ExternalLocation    string
	Notes               string
	Requestor           ActaPerson
	Lines               []ActaLine
	Total               decimal.Decimal
	GeneratedAt         time.Time
}

// HistoryEntry fila del historial de una persona.
type HistoryEntry struct {
	LoanID              int64      `json:"loan_id"`
	Code                string     `json:"code"`
	Status              string     `json:"status"`
	RequestDate         time.Time  `json:"request_date"`
	ScheduledReturnDate time.Time  `json:"scheduled_return_date"`
	ActualReturnDate    *time.Time `json:"actual_return_date,omitempty"`
	Reason              string     `json:"reason"`
	Items               int        `json:"items"`
	Units               int        `json:"units"`
}

// PersonHistoryResponse historial de préstamos de una persona.
type PersonHistoryResponse struct {
	DNI       string         `json:"dni"`
	FullName  string         `json:"full_name,omitempty"`
	Defaulter bool           `json:"defaulter"`
	Entries   []HistoryEntry `json:"entries"`
}

// HistoryExport datos para la hoja de cálculo del historial.
type HistoryExport struct {
	History     PersonHistoryResponse
	GeneratedAt time.Time
}
