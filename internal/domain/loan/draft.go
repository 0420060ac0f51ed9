package loan

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

// Requestor datos del solicitante resueltos por DNI.
type Requestor struct {
	PersonID  int64  `json:"person_id"`
	DNI       string `json:"dni"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Type      string `json:"type"`
	Defaulter bool   `json:"defaulter"`
	Validated bool   `json:"validated"`
}

// RequestorFromPerson construye el solicitante validado.
func RequestorFromPerson(p entity.Person) Requestor {
	return Requestor{
		PersonID:  p.ID,
		DNI:       p.DNI,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Phone:     p.Phone,
		Type:      p.Type,
		Defaulter: p.Defaulter,
		Validated: true,
	}
}

// DetailRequest línea del pedido de creación.
type DetailRequest struct {
	ItemID           int64  `json:"item_id"`
	ExitConditionID  int64  `json:"exit_condition_id"`
	ExitObservations string `json:"exit_observations"`
	Quantity         int    `json:"quantity"`
}

// CreateRequest pedido de creación de préstamo tal como se envía al backend.
type CreateRequest struct {
	ScheduledReturnDate time.Time       `json:"scheduled_return_date"`
	RequestorID         int64           `json:"requestor_id"`
	Reason              string          `json:"reason"`
	AssociatedEvent     string          `json:"associated_event,omitempty"`
	ExternalLocation    string          `json:"external_location,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	Details             []DetailRequest `json:"details"`
	BlockBlacklisted    bool            `json:"block_blacklisted"`
}

// ConditionChange cambio de condición aplicado a un ítem antes de crear el préstamo.
// From permite revertirlo.
type ConditionChange struct {
	ItemID int64  `json:"item_id"`
	Code   string `json:"code"`
	From   int64  `json:"from"`
	To     int64  `json:"to"`
}

// PendingSubmission pedido retenido a la espera de que el operador confirme el préstamo a
// una persona en lista negra.
type PendingSubmission struct {
	Request CreateRequest     `json:"request"`
	Applied []ConditionChange `json:"applied"`
	Message string            `json:"message"`
}

// Draft borrador de préstamo de un operador.
type Draft struct {
	ID                  string             `json:"id"`
	OperatorID          string             `json:"operator_id"`
	Mode                Mode               `json:"mode"`
	Requestor           Requestor          `json:"requestor"`
	RequestorError      string             `json:"requestor_error,omitempty"`
	Reason              string             `json:"reason"`
	AssociatedEvent     string             `json:"associated_event"`
	ExternalLocation    string             `json:"external_location"`
	Notes               string             `json:"notes"`
	ScheduledReturnDate time.Time          `json:"scheduled_return_date"`
	Cart                Cart               `json:"cart"`
	Pending             *PendingSubmission `json:"pending,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
}

// NewDraft abre un borrador con la fecha sugerida por defecto.
func NewDraft(id, operatorID string, mode Mode, now time.Time) *Draft {
	if !mode.Valid() {
		mode = ModeManual
	}
	return &Draft{
		ID:                  id,
		OperatorID:          operatorID,
		Mode:                mode,
		ScheduledReturnDate: DefaultReturnDate(now),
		CreatedAt:           now,
	}
}

// Window ventana de fecha aplicable al borrador en el instante now.
func (d *Draft) Window(now time.Time) Window {
	return WindowFor(d.Mode, now, d.Requestor.Type)
}

// ClearRequestor invalida al solicitante y registra el error de campo.
func (d *Draft) ClearRequestor(dni, fieldErr string) {
	d.Requestor = Requestor{DNI: dni}
	d.RequestorError = fieldErr
}

// SetRequestor registra al solicitante validado y limpia el error previo.
func (d *Draft) SetRequestor(p entity.Person) {
	d.Requestor = RequestorFromPerson(p)
	d.RequestorError = ""
}

// Validate revisa el formulario completo y devuelve *domain.ValidationError con todos los campos inválidos.
func (d *Draft) Validate(now time.Time) error {
	v := &domain.ValidationError{}

	if d.Requestor.PersonID == 0 {
		v.Add("requestor_id", "el solicitante es obligatorio")
	}
	if !d.Requestor.Validated {
		v.Add("requestor_dni", "valide el DNI del solicitante")
	}

	reason := strings.TrimSpace(d.Reason)
	switch {
	case reason == "":
		v.Add("reason", "el motivo es obligatorio")
	case utf8.RuneCountInString(reason) > MaxTextLength:
		v.Add("reason", "el motivo no puede superar %d caracteres", MaxTextLength)
	}
	checkLength(v, "notes", "las notas", d.Notes)
	checkLength(v, "associated_event", "el evento asociado", d.AssociatedEvent)
	checkLength(v, "external_location", "la ubicación externa", d.ExternalLocation)

	w := d.Window(now)
	if d.ScheduledReturnDate.IsZero() {
		v.Add("scheduled_return_date", "la fecha de devolución es obligatoria")
	} else if !w.Contains(d.ScheduledReturnDate) {
		v.Add("scheduled_return_date", "la fecha de devolución debe estar entre %s y %s",
			w.Min.Format("02/01/2006 15:04"), w.Max.Format("02/01/2006 15:04"))
	}

	if len(d.Cart.Items) == 0 {
		v.Add("items", "agregue al menos un ítem")
	}
	for i, it := range d.Cart.Items {
		if it.ExitConditionID <= 0 {
			v.Add(fmt.Sprintf("items[%d].exit_condition_id", i), "seleccione la condición de salida de %s", it.Code)
		}
		if it.Quantity < 1 || it.Quantity > it.Stock {
			v.Add(fmt.Sprintf("items[%d].quantity", i), "la cantidad de %s debe estar entre 1 y %d", it.Code, it.Stock)
		}
		if utf8.RuneCountInString(it.ExitObservations) > MaxTextLength {
			v.Add(fmt.Sprintf("items[%d].exit_observations", i), "máximo %d caracteres", MaxTextLength)
		}
	}
	return v.OrNil()
}

func checkLength(v *domain.ValidationError, field, label, value string) {
	if utf8.RuneCountInString(value) > MaxTextLength {
		v.Add(field, "%s no puede superar %d caracteres", label, MaxTextLength)
	}
}

// Build valida y arma el pedido de creación con la lista negra bloqueada.
func (d *Draft) Build(now time.Time) (CreateRequest, error) {
	if err := d.Validate(now); err != nil {
		return CreateRequest{}, err
	}
	details := make([]DetailRequest, 0, len(d.Cart.Items))
	for _, it := range d.Cart.Items {
		details = append(details, DetailRequest{
			ItemID:           it.ItemID,
			ExitConditionID:  it.ExitConditionID,
			ExitObservations: it.ExitObservations,
			Quantity:         it.Quantity,
		})
	}
	return CreateRequest{
		ScheduledReturnDate: d.ScheduledReturnDate,
		RequestorID:         d.Requestor.PersonID,
		Reason:              strings.TrimSpace(d.Reason),
		AssociatedEvent:     strings.TrimSpace(d.AssociatedEvent),
		ExternalLocation:    strings.TrimSpace(d.ExternalLocation),
		Notes:               strings.TrimSpace(d.Notes),
		Details:             details,
		BlockBlacklisted:    true,
	}, nil
}
