// Package loan contiene las reglas puras del flujo de préstamos: ventanas de fecha de devolución,
// carrito de ítems, validación del formulario, detección de lista negra y el flujo de devolución.
package loan

import (
	"strings"
	"time"

	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

// Mode punto de entrada que originó el borrador. Cada uno tiene su propia ventana de fecha.
type Mode string

const (
	ModeManual Mode = "manual" // formulario con validación de solicitante por DNI
	ModeScan   Mode = "scan"   // formulario de escaneo de códigos de barras
)

// Valid indica si el modo es conocido.
func (m Mode) Valid() bool { return m == ModeManual || m == ModeScan }

const (
	// MinLeadTime anticipación mínima de la fecha de devolución.
	MinLeadTime = 2 * time.Hour
	// TeacherMaxDays días máximos de préstamo para docentes.
	TeacherMaxDays = 10
	// ScanMaxDays máximo del formulario de escaneo (4 semanas), sin distinción de tipo.
	ScanMaxDays = 28
)

// Window rango cerrado [Min, Max] permitido para la fecha programada de devolución.
type Window struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

// Contains indica si t está dentro de la ventana (extremos incluidos).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Min) && !t.After(w.Max)
}

// endOfDay devuelve las 23:59:00 del día de t en su misma zona horaria.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 0, 0, t.Location())
}

// IsTeacher indica si el tipo de persona corresponde a docentes.
func IsTeacher(personType string) bool {
	return strings.EqualFold(strings.TrimSpace(personType), entity.PersonTypeTeacher)
}

// RequestorWindow ventana del formulario manual según el tipo de solicitante.
// Docentes: hasta 10 días a las 23:59. Resto: hasta hoy 23:59; si eso ya es anterior al
// mínimo (solicitud nocturna) el máximo colapsa al mínimo.
func RequestorWindow(now time.Time, personType string) Window {
	min := now.Add(MinLeadTime)
	if IsTeacher(personType) {
		return Window{Min: min, Max: endOfDay(now.AddDate(0, 0, TeacherMaxDays))}
	}
	max := endOfDay(now)
	if max.Before(min) {
		max = min
	}
	return Window{Min: min, Max: max}
}

// ScanWindow ventana del formulario de escaneo: [now+2h, now+4 semanas].
func ScanWindow(now time.Time) Window {
	return Window{Min: now.Add(MinLeadTime), Max: now.AddDate(0, 0, ScanMaxDays)}
}

// WindowFor selecciona la política del punto de entrada.
func WindowFor(mode Mode, now time.Time, personType string) Window {
	if mode == ModeScan {
		return ScanWindow(now)
	}
	return RequestorWindow(now, personType)
}

// DefaultReturnDate fecha sugerida: hoy 23:59, salvo que sea anterior a now+2h.
func DefaultReturnDate(now time.Time) time.Time {
	eod := endOfDay(now)
	min := now.Add(MinLeadTime)
	if eod.Before(min) {
		return min
	}
	return eod
}
