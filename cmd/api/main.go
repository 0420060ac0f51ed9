package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/prestamos-api/internal/application/lending"
	"github.com/jhoicas/prestamos-api/internal/application/report"
	"github.com/jhoicas/prestamos-api/internal/application/store"
	"github.com/jhoicas/prestamos-api/internal/infrastructure/backend"
	infrapdf "github.com/jhoicas/prestamos-api/internal/infrastructure/pdf"
	"github.com/jhoicas/prestamos-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/prestamos-api/internal/infrastructure/redis"
	"github.com/jhoicas/prestamos-api/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/prestamos-api/internal/interfaces/http"
	"github.com/jhoicas/prestamos-api/pkg/config"
	"github.com/jhoicas/prestamos-api/pkg/logger"
	"github.com/jhoicas/prestamos-api/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("backend", cfg.Backend.BaseURL).
		Msg("iniciando aplicación")

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar trazas")
	}

	// ── Persistencia ──────────────────────────────────────────────────────────
	rdb, err := infraredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer rdb.Close()
	sessions := infraredis.NewSessionStore(rdb, cfg.Session.TTL)

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(pool, log.Component("migrate")); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}
	views := postgres.NewListViewRepository(pool)
	audits := postgres.NewOverrideAuditRepository(pool)

	// ── Backend institucional ─────────────────────────────────────────────────
	client := backend.NewClient(cfg.Backend, log)
	loans := backend.NewLoanGateway(client)
	persons := backend.NewPersonDirectory(client)
	items := backend.NewInventoryCatalog(client)
	conditions := backend.NewConditionCatalog(client)

	// ── Casos de uso ──────────────────────────────────────────────────────────
	clock := lending.SystemClock(cfg.App.Location())

	builder := lending.NewLoanBuilder(items, log)
	submitter := lending.NewSubmitter(loans, builder, audits, clock, log)
	draftUC := lending.NewDraftUseCase(
		sessions, lending.NewRequestorValidator(persons, log), items, conditions, submitter, clock, log,
	)
	returnUC := lending.NewReturnUseCase(sessions, loans, items, persons, clock, log)
	loanList := store.NewLoanListStore(loans, views, log)
	reportsUC := report.NewReportUseCase(
		loans, persons, items, conditions,
		infrapdf.NewActaGenerator(cfg.App.Institution), xlsx.NewHistoryExporter(),
		clock, log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.Backend.Timeout + 10*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.TracingMiddleware())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Préstamos API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		DraftUC:       draftUC,
		ReturnUC:      returnUC,
		LoanList:      loanList,
		ReportsUC:     reportsUC,
		JWTSecret:     cfg.JWT.Secret,
		OperatorRoles: cfg.JWT.OperatorRoles,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("cierre de trazas")
	}

	log.Info().Msg("aplicación detenida")
}
