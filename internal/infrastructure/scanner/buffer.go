// Package scanner convierte la ráfaga de teclas de un lector de código de barras en códigos.
// Un Enter o un silencio mayor al gap cierran el código en curso.
package scanner

import (
	"strings"
	"time"
)

// Buffer acumula teclas. No es seguro para uso concurrente; Run lo usa desde una sola goroutine.
type Buffer struct {
	gap  time.Duration
	buf  strings.Builder
	last time.Time
}

func NewBuffer(gap time.Duration) *Buffer {
	if gap <= 0 {
		gap = 50 * time.Millisecond
	}
	return &Buffer{gap: gap}
}

// Key registra una tecla recibida en at. Devuelve el código cerrado, si lo hubo: por Enter, o
// el anterior cuando la tecla llega después de un silencio mayor al gap.
func (b *Buffer) Key(r rune, at time.Time) (string, bool) {
	if r == '\r' || r == '\n' {
		return b.flush()
	}
	var code string
	var ok bool
	if b.buf.Len() > 0 && at.Sub(b.last) > b.gap {
		code, ok = b.flush()
	}
	if r >= ' ' && r != 0x7f {
		b.buf.WriteRune(r)
		b.last = at
	}
	return code, ok
}

// Tick cierra el código pendiente si el silencio ya superó el gap.
func (b *Buffer) Tick(at time.Time) (string, bool) {
	if b.buf.Len() == 0 || at.Sub(b.last) <= b.gap {
		return "", false
	}
	return b.flush()
}

// Pending indica si hay teclas sin cerrar.
func (b *Buffer) Pending() bool { return b.buf.Len() > 0 }

func (b *Buffer) flush() (string, bool) {
	code := strings.TrimSpace(b.buf.String())
	b.buf.Reset()
	return code, code != ""
}
