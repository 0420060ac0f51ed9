package lending

import (
	"context"
	"strings"

	"github.com/jhoicas/prestamos-api/internal/application/ports"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/pkg/logger"
)

// Mensajes de campo del DNI.
const (
	MsgDNIRequired = "ingrese el DNI del solicitante"
	MsgDNINotFound = "no se encontró ninguna persona con este DNI"
	MsgDNIFailed   = "error al validar el DNI"
)

// RequestorResult resultado de validar un DNI. Person es nil cuando no se pudo validar y
// FieldError explica por qué.
type RequestorResult struct {
	Person     *entity.Person
	FieldError string
}

// Validated indica si el solicitante quedó resuelto.
func (r RequestorResult) Validated() bool { return r.Person != nil }

// RequestorValidator resuelve el solicitante por DNI contra el directorio de personas.
type RequestorValidator struct {
	persons ports.PersonDirectory
	log     *logger.Logger
}

// NewRequestorValidator construye el validador.
func NewRequestorValidator(persons ports.PersonDirectory, log *logger.Logger) *RequestorValidator {
	return &RequestorValidator{persons: persons, log: log.Component("requestor")}
}

// Validate distingue "no existe" de "no se pudo consultar"; ninguno de los dos es un error
// del caso de uso, ambos terminan como error de campo.
func (v *RequestorValidator) Validate(ctx context.Context, dni string) RequestorResult {
	dni = strings.TrimSpace(dni)
	if dni == "" {
		return RequestorResult{FieldError: MsgDNIRequired}
	}
	p, err := v.persons.FindByDNI(ctx, dni)
	if err != nil {
		v.log.Warn().Err(err).Str("dni", dni).Msg("búsqueda de persona falló")
		return RequestorResult{FieldError: MsgDNIFailed}
	}
	if p == nil {
		return RequestorResult{FieldError: MsgDNINotFound}
	}
	return RequestorResult{Person: p}
}
