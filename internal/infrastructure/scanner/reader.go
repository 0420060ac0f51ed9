package scanner

import (
	"bufio"
	"context"
	"errors"
	"io"
	"time"

	"github.com/jhoicas/prestamos-api/pkg/logger"
)

// Run lee runas de r y emite cada código completo en el canal devuelto. El canal se cierra al
// terminar r (EOF, tras cerrar el código pendiente) o al cancelar ctx.
func Run(ctx context.Context, r io.Reader, gap time.Duration, log *logger.Logger) <-chan string {
	out := make(chan string)
	keys := make(chan rune)
	log = log.Component("scanner")

	go func() {
		defer close(keys)
		br := bufio.NewReader(r)
		for {
			ch, _, err := br.ReadRune()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					log.Warn().Err(err).Msg("lectura del dispositivo interrumpida")
				}
				return
			}
			select {
			case keys <- ch:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		defer close(out)
		buf := NewBuffer(gap)
		timer := time.NewTimer(time.Hour)
		timer.Stop()

		emit := func(code string, ok bool) bool {
			if !ok {
				return true
			}
			select {
			case out <- code:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ch, open := <-keys:
				if !open {
					emit(buf.flush())
					return
				}
				if !emit(buf.Key(ch, time.Now())) {
					return
				}
				if buf.Pending() {
					timer.Reset(buf.gap + time.Millisecond)
				}
			case <-timer.C:
				if !emit(buf.Tick(time.Now())) {
					return
				}
			}
		}
	}()

	return out
}
