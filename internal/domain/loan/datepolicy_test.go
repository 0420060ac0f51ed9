package loan_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/jhoicas/prestamos-api/internal/domain/loan"
)

var lima = time.FixedZone("PET", -5*3600)

func at(hour, min int) time.Time {
	return time.Date(2026, 10, 15, hour, min, 0, 0, lima)
}

func TestRequestorWindow_EstudianteDeDia(t *testing.T) {
	now := at(10, 0)
	w := loan.RequestorWindow(now, "ESTUDIANTES")

	assert.Equal(t, at(12, 0), w.Min)
	assert.Equal(t, at(23, 59), w.Max)
}

func TestRequestorWindow_EstudianteDeNocheColapsaAlMinimo(t *testing.T) {
	now := at(22, 30)
	w := loan.RequestorWindow(now, "ESTUDIANTES")

	assert.Equal(t, now.Add(2*time.Hour), w.Min)
	assert.Equal(t, w.Min, w.Max, "después de las 21:59 la ventana es un solo instante")
}

func TestRequestorWindow_Docentes(t *testing.T) {
	now := at(10, 17)
	w := loan.RequestorWindow(now, "DOCENTES")

	assert.Equal(t, now.Add(2*time.Hour), w.Min)
	assert.Equal(t, time.Date(2026, 10, 25, 23, 59, 0, 0, lima), w.Max)
	assert.False(t, w.Contains(now.Add(time.Hour)), "antes del mínimo")
	assert.False(t, w.Contains(time.Date(2026, 10, 26, 0, 0, 0, 0, lima)), "después del máximo")
	assert.True(t, w.Contains(w.Max), "los extremos se incluyen")
}

func TestRequestorWindow_TipoDesconocidoUsaPoliticaDeEstudiante(t *testing.T) {
	now := at(9, 0)
	assert.Equal(t, loan.RequestorWindow(now, "ESTUDIANTES"), loan.RequestorWindow(now, ""))
	assert.Equal(t, loan.RequestorWindow(now, "DOCENTES"), loan.RequestorWindow(now, " docentes "))
}

func TestScanWindow_CuatroSemanasSinDistincion(t *testing.T) {
	now := at(22, 30)
	w := loan.ScanWindow(now)

	assert.Equal(t, now.Add(2*time.Hour), w.Min)
	assert.Equal(t, now.AddDate(0, 0, 28), w.Max)
	assert.Equal(t, w, loan.WindowFor(loan.ModeScan, now, "DOCENTES"))
	assert.NotEqual(t, w, loan.WindowFor(loan.ModeManual, now, "ESTUDIANTES"),
		"las dos políticas se mantienen separadas")
}

func TestDefaultReturnDate(t *testing.T) {
	assert.Equal(t, at(23, 59), loan.DefaultReturnDate(at(8, 0)))
	assert.Equal(t, at(23, 59), loan.DefaultReturnDate(at(21, 59)))
	assert.Equal(t, at(22, 0).Add(2*time.Hour), loan.DefaultReturnDate(at(22, 0)))
}

func TestRequestorWindow_Propiedades(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, lima)
	rapid.Check(t, func(t *rapid.T) {
		now := base.Add(time.Duration(rapid.Int64Range(0, 365*24*3600).Draw(t, "segundos")) * time.Second)
		y, m, d := now.Date()
		eod := time.Date(y, m, d, 23, 59, 0, 0, lima)
		min := now.Add(2 * time.Hour)

		w := loan.RequestorWindow(now, "ESTUDIANTES")
		expectedMax := eod
		if eod.Before(min) {
			expectedMax = min
		}
		if !w.Max.Equal(expectedMax) || !w.Min.Equal(min) {
			t.Fatalf("estudiante: ventana %v, esperado [%v, %v]", w, min, expectedMax)
		}
		if w.Max.Before(w.Min) {
			t.Fatalf("ventana vacía: %v", w)
		}

		def := loan.DefaultReturnDate(now)
		if !w.Contains(def) {
			t.Fatalf("la fecha sugerida %v está fuera de %v", def, w)
		}

		tw := loan.RequestorWindow(now, "DOCENTES")
		ty, tm, td := now.AddDate(0, 0, 10).Date()
		if !tw.Max.Equal(time.Date(ty, tm, td, 23, 59, 0, 0, lima)) {
			t.Fatalf("docente: máximo %v", tw.Max)
		}
	})
}
