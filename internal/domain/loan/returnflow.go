package loan

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

// FlowState estado del flujo de devolución.
type FlowState string

const (
	StateReviewing  FlowState = "reviewing"
	StateSubmitting FlowState = "submitting"
	StateDone       FlowState = "done"
)

// ReturnEntry datos de devolución de una línea del préstamo.
type ReturnEntry struct {
	LoanDetailID       int64  `json:"loan_detail_id"`
	ItemID             int64  `json:"item_id"`
	ItemName           string `json:"item_name"`
	OriginalQuantity   int    `json:"original_quantity"`
	ReturnConditionID  int64  `json:"return_condition_id"`
	ReturnObservations string `json:"return_observations"`
	Quantity           int    `json:"quantity"`
	QuantityInput      string `json:"quantity_input"`
}

// ReturnedItem línea del pedido de devolución.
type ReturnedItem struct {
	LoanDetailID       int64  `json:"loan_detail_id"`
	ReturnConditionID  int64  `json:"return_condition_id"`
	ReturnObservations string `json:"return_observations"`
	Quantity           int    `json:"quantity"`
}

// ReturnRequest devolución en lote de todas las líneas de un préstamo.
type ReturnRequest struct {
	LoanID           int64          `json:"loan_id"`
	ActualReturnDate time.Time      `json:"actual_return_date"`
	Items            []ReturnedItem `json:"items"`
	Notes            string         `json:"notes,omitempty"`
}

// ReturnFlow recorre las líneas de un préstamo entregado una por una.
// Reviewing(Index) -> Submitting -> Done | Reviewing(Index).
type ReturnFlow struct {
	LoanID      int64         `json:"loan_id"`
	LoanCode    string        `json:"loan_code"`
	RequestorID int64         `json:"requestor_id"`
	State       FlowState     `json:"state"`
	Index       int           `json:"index"`
	Entries     []ReturnEntry `json:"entries"`
	Notes       string        `json:"notes"`
}

// NewReturnFlow abre el flujo sobre un préstamo en estado DELIVERED.
// itemNames es opcional (ItemID -> nombre) y solo sirve para mostrar.
func NewReturnFlow(l *entity.Loan, itemNames map[int64]string) (*ReturnFlow, error) {
	if l == nil {
		return nil, domain.ErrNotFound
	}
	if l.Status != entity.LoanStatusDelivered {
		return nil, fmt.Errorf("%w: estado actual %s", domain.ErrLoanNotDelivered, l.Status)
	}
	if len(l.Details) == 0 {
		return nil, fmt.Errorf("%w: el préstamo no tiene ítems", domain.ErrInvalidInput)
	}

	v := &domain.ValidationError{}
	entries := make([]ReturnEntry, 0, len(l.Details))
	for i, d := range l.Details {
		e := ReturnEntry{
			LoanDetailID:     d.ID,
			ItemID:           d.ItemID,
			ItemName:         itemNames[d.ItemID],
			OriginalQuantity: d.Quantity,
			Quantity:         d.Quantity,
			QuantityInput:    strconv.Itoa(d.Quantity),
		}
		switch d.ReturnState() {
		case entity.ReturnPartial:
			v.Add(fmt.Sprintf("items[%d]", i), "item %d: datos de devolución incompletos", i+1)
		case entity.ReturnFull:
			e.ReturnConditionID = *d.ReturnConditionID
			e.ReturnObservations = *d.ReturnObservations
		}
		entries = append(entries, e)
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	return &ReturnFlow{
		LoanID:      l.ID,
		LoanCode:    l.Code,
		RequestorID: l.RequestorID,
		State:       StateReviewing,
		Index:       0,
		Entries:     entries,
	}, nil
}

// Current devuelve la línea bajo el cursor.
func (f *ReturnFlow) Current() *ReturnEntry {
	return &f.Entries[f.Index]
}

// Next avanza el cursor; no hace nada en el último ítem o fuera de revisión.
func (f *ReturnFlow) Next() {
	if f.State == StateReviewing && f.Index < len(f.Entries)-1 {
		f.Index++
	}
}

// Previous retrocede el cursor; no hace nada en el primer ítem o fuera de revisión.
func (f *ReturnFlow) Previous() {
	if f.State == StateReviewing && f.Index > 0 {
		f.Index--
	}
}

func (f *ReturnFlow) entry(i int) (*ReturnEntry, error) {
	if f.State == StateDone {
		return nil, domain.ErrFlowClosed
	}
	if i < 0 || i >= len(f.Entries) {
		return nil, fmt.Errorf("%w: índice %d", domain.ErrInvalidInput, i)
	}
	return &f.Entries[i], nil
}

// SetCondition fija la condición de devolución de la línea i.
func (f *ReturnFlow) SetCondition(i int, conditionID int64) error {
	e, err := f.entry(i)
	if err != nil {
		return err
	}
	e.ReturnConditionID = conditionID
	return nil
}

// SetObservations fija las observaciones de devolución de la línea i.
func (f *ReturnFlow) SetObservations(i int, text string) error {
	e, err := f.entry(i)
	if err != nil {
		return err
	}
	e.ReturnObservations = text
	return nil
}

// TypeQuantity procesa la cantidad mientras se escribe: fuera de [1, original] o no numérica
// se ignora sin modificar la línea.
func (f *ReturnFlow) TypeQuantity(i int, raw string) error {
	e, err := f.entry(i)
	if err != nil {
		return err
	}
	n, convErr := strconv.Atoi(strings.TrimSpace(raw))
	if convErr != nil || n < 1 || n > e.OriginalQuantity {
		return nil
	}
	e.Quantity = n
	e.QuantityInput = strconv.Itoa(n)
	return nil
}

// BlurQuantity al salir del campo la cantidad se ajusta a [1, original].
func (f *ReturnFlow) BlurQuantity(i int, raw string) error {
	e, err := f.entry(i)
	if err != nil {
		return err
	}
	if n, convErr := strconv.Atoi(strings.TrimSpace(raw)); convErr == nil {
		switch {
		case n < 1:
			n = 1
		case n > e.OriginalQuantity:
			n = e.OriginalQuantity
		}
		e.Quantity = n
	}
	e.QuantityInput = strconv.Itoa(e.Quantity)
	return nil
}

// Validate revisa todas las líneas y las notas. Cada error nombra el ítem (base 1).
func (f *ReturnFlow) Validate() error {
	v := &domain.ValidationError{}
	for i, e := range f.Entries {
		if e.ReturnConditionID <= 0 {
			v.Add(fmt.Sprintf("items[%d].return_condition_id", i), "item %d: seleccione la condición de devolución", i+1)
		}
		obs := strings.TrimSpace(e.ReturnObservations)
		switch {
		case obs == "":
			v.Add(fmt.Sprintf("items[%d].return_observations", i), "item %d: las observaciones son obligatorias", i+1)
		case utf8.RuneCountInString(obs) > MaxTextLength:
			v.Add(fmt.Sprintf("items[%d].return_observations", i), "item %d: máximo %d caracteres", i+1, MaxTextLength)
		}
	}
	if utf8.RuneCountInString(f.Notes) > MaxTextLength {
		v.Add("notes", "las notas no pueden superar %d caracteres", MaxTextLength)
	}
	return v.OrNil()
}

// BeginSubmit valida y pasa a Submitting devolviendo el pedido en lote. Si la validación
// falla el flujo sigue en revisión en el mismo índice.
func (f *ReturnFlow) BeginSubmit(now time.Time) (ReturnRequest, error) {
	switch f.State {
	case StateDone:
		return ReturnRequest{}, domain.ErrFlowClosed
	case StateSubmitting:
		return ReturnRequest{}, domain.ErrSubmissionInFlight
	}
	if err := f.Validate(); err != nil {
		return ReturnRequest{}, err
	}

	items := make([]ReturnedItem, 0, len(f.Entries))
	for _, e := range f.Entries {
		qty := e.Quantity
		if qty > e.OriginalQuantity {
			qty = e.OriginalQuantity
		}
		if qty < 1 {
			qty = 1
		}
		items = append(items, ReturnedItem{
			LoanDetailID:       e.LoanDetailID,
			ReturnConditionID:  e.ReturnConditionID,
			ReturnObservations: strings.TrimSpace(e.ReturnObservations),
			Quantity:           qty,
		})
	}
	f.State = StateSubmitting
	return ReturnRequest{
		LoanID:           f.LoanID,
		ActualReturnDate: now,
		Items:            items,
		Notes:            strings.TrimSpace(f.Notes),
	}, nil
}

// Complete resuelve el envío: sin error -> Done; con error -> vuelve a revisión en el mismo índice.
func (f *ReturnFlow) Complete(submitErr error) {
	if f.State != StateSubmitting {
		return
	}
	if submitErr == nil {
		f.State = StateDone
		return
	}
	f.State = StateReviewing
}

// DefaulterControl estado de las acciones "marcar moroso" / "quitar moroso".
type DefaulterControl struct {
	Defaulter bool `json:"defaulter"`
	InFlight  bool `json:"in_flight"`
}

// CanMark indica si "marcar moroso" está habilitado.
func (c DefaulterControl) CanMark() bool { return !c.Defaulter && !c.InFlight }

// CanUnmark indica si "quitar moroso" está habilitado.
func (c DefaulterControl) CanUnmark() bool { return c.Defaulter && !c.InFlight }
