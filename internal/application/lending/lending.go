// Package lending casos de uso del mostrador de préstamos: borradores, envío con protocolo
// de lista negra, devolución en lote y control de morosos.
package lending

import (
	"time"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/jhoicas/prestamos-api/internal/application/lending")

// Clock reloj inyectable; las políticas de fecha dependen de la hora local configurada.
type Clock func() time.Time

// SystemClock reloj real en la zona horaria dada.
func SystemClock(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}
