// scanbridge conecta un lector de código de barras (teclado HID o puerto serie) con el
// borrador de préstamo de la estación: cada código leído se agrega como ítem.
//
// Uso: SCANNER_DRAFT_ID=<id> SCANNER_TOKEN=<jwt> go run ./cmd/scanbridge
// SCANNER_DEVICE="-" lee de stdin.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/prestamos-api/internal/infrastructure/scanner"
	"github.com/jhoicas/prestamos-api/pkg/config"
	"github.com/jhoicas/prestamos-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("scanbridge")

	if cfg.Scanner.DraftID == "" {
		log.Fatal().Msg("SCANNER_DRAFT_ID es obligatorio")
	}

	var src io.Reader = os.Stdin
	if cfg.Scanner.Device != "" && cfg.Scanner.Device != "-" {
		f, err := os.Open(cfg.Scanner.Device)
		if err != nil {
			log.Fatal().Err(err).Str("device", cfg.Scanner.Device).Msg("abrir dispositivo")
		}
		defer f.Close()
		src = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poster := scanner.NewPoster(cfg.Scanner.APIBaseURL, cfg.Scanner.DraftID, cfg.Scanner.Token, cfg.Backend.Timeout)
	log.Info().Str("draft_id", cfg.Scanner.DraftID).Dur("gap", cfg.Scanner.Gap).Msg("esperando lecturas")

	for code := range scanner.Run(ctx, src, cfg.Scanner.Gap, log) {
		draft, err := poster.Post(ctx, code)
		if err != nil {
			log.Warn().Err(err).Str("code", code).Msg("lectura no agregada")
			continue
		}
		ev := log.Info().Str("code", code).Int("items", len(draft.Items))
		if draft.Warning != "" {
			ev = ev.Str("warning", draft.Warning)
		}
		ev.Msg("ítem agregado")
	}
	log.Info().Msg("lector cerrado")
}
