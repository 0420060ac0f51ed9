package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")

	ErrDuplicateItem      = errors.New("el ítem ya fue agregado al préstamo")
	ErrItemUnavailable    = errors.New("el ítem no está disponible para préstamo")
	ErrQuantityTooLarge   = errors.New("la cantidad excede el máximo permitido")
	ErrItemNotInDraft     = errors.New("el ítem no forma parte del préstamo")
	ErrRequestorNotValid  = errors.New("el solicitante no ha sido validado")
	ErrLoanNotDelivered   = errors.New("el préstamo no está en estado ENTREGADO")
	ErrNoPendingOverride  = errors.New("no hay una solicitud pendiente de confirmación")
	ErrFlowClosed         = errors.New("el flujo de devolución ya fue completado")
	ErrSubmissionInFlight = errors.New("hay un envío en curso")
)

// FieldError error de validación asociado a un campo del formulario.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError agrupa los errores de validación de un formulario. Envuelve ErrInvalidInput.
type ValidationError struct {
	Fields []FieldError
}

// Error implementa error.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validación: " + strings.Join(parts, "; ")
}

// Unwrap permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Add agrega un error de campo.
func (e *ValidationError) Add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// OrNil devuelve nil si no hay errores acumulados.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// StaleStockError la cantidad pedida de un ítem supera el stock actual del inventario.
type StaleStockError struct {
	Code      string
	Name      string
	Requested int
	Available int
}

func (e *StaleStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s (%s): solicitado %d, disponible %d",
		e.Name, e.Code, e.Requested, e.Available)
}

// Unwrap permite errors.Is(err, ErrInsufficientStock).
func (e *StaleStockError) Unwrap() error { return ErrInsufficientStock }

// RemoteError rechazo informado por el backend institucional: un sobre con success=false o
// una respuesta HTTP de error. Messages conserva las líneas de message.content en orden.
type RemoteError struct {
	Status   int
	Messages []string
	Body     string
}

func (e *RemoteError) Error() string {
	if m := e.Message(); m != "" {
		return m
	}
	return fmt.Sprintf("el backend respondió con estado %d", e.Status)
}

// Message primera línea de mensaje no vacía; si no hay, el cuerpo crudo recortado.
func (e *RemoteError) Message() string {
	for _, m := range e.Messages {
		if s := strings.TrimSpace(m); s != "" {
			return s
		}
	}
	return strings.TrimSpace(e.Body)
}

// Text todas las líneas unidas, para buscar marcadores en el texto completo del rechazo.
func (e *RemoteError) Text() string {
	if len(e.Messages) == 0 {
		return e.Body
	}
	return strings.Join(e.Messages, "\n")
}

// Is traduce los estados HTTP conocidos a los errores de dominio.
func (e *RemoteError) Is(target error) bool {
	switch e.Status {
	case 401:
		return target == ErrUnauthorized
	case 403:
		return target == ErrForbidden
	case 404:
		return target == ErrNotFound
	case 409:
		return target == ErrConflict
	}
	return false
}
