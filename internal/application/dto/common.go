package dto

import "github.com/jhoicas/prestamos-api/internal/domain"

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ErrorResponse cuerpo de error HTTP. Fields lista los errores por campo de un formulario.
type ErrorResponse struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}

// NextLoans destino al que vuelve la interfaz tras un envío exitoso.
const NextLoans = "/loans"
