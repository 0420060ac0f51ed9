package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/prestamos-api/internal/application/lending"
	"github.com/jhoicas/prestamos-api/internal/application/report"
	"github.com/jhoicas/prestamos-api/internal/application/store"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	DraftUC   *lending.DraftUseCase
	ReturnUC  *lending.ReturnUseCase
	LoanList  *store.LoanListStore
	ReportsUC *report.ReportUseCase
	JWTSecret string
	// Roles habilitados para operar la mesa de préstamos; vacío = cualquier rol.
	OperatorRoles []string
}

// Router registra las rutas de la API. Todo /api requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	if len(deps.OperatorRoles) > 0 {
		api.Use(RequireRole(deps.OperatorRoles...))
	}

	// Borradores de préstamo
	drafts := api.Group("/loan-drafts")
	draftHandler := NewDraftHandler(deps.DraftUC)
	drafts.Post("/", draftHandler.Open)
	drafts.Get("/:id", draftHandler.Get)
	drafts.Delete("/:id", draftHandler.Discard)
	drafts.Patch("/:id", draftHandler.Update)
	drafts.Post("/:id/requestor", draftHandler.ValidateRequestor)
	drafts.Post("/:id/items", draftHandler.AddItem)
	drafts.Patch("/:id/items/:code", draftHandler.UpdateItem)
	drafts.Delete("/:id/items/:code", draftHandler.RemoveItem)
	drafts.Post("/:id/submit", draftHandler.Submit)
	drafts.Post("/:id/override", draftHandler.ConfirmOverride)
	drafts.Delete("/:id/override", draftHandler.CancelOverride)

	// Devoluciones
	returns := api.Group("/return-sessions")
	returnHandler := NewReturnHandler(deps.ReturnUC)
	returns.Post("/", returnHandler.Open)
	returns.Get("/:id", returnHandler.Get)
	returns.Patch("/:id", returnHandler.Update)
	returns.Post("/:id/next", returnHandler.Next)
	returns.Post("/:id/previous", returnHandler.Previous)
	returns.Patch("/:id/items/:index", returnHandler.UpdateItem)
	returns.Post("/:id/submit", returnHandler.Submit)
	returns.Post("/:id/defaulter", returnHandler.MarkDefaulter)
	returns.Delete("/:id/defaulter", returnHandler.UnmarkDefaulter)

	// Préstamos
	loans := api.Group("/loans")
	loanHandler := NewLoanHandler(deps.LoanList, deps.ReportsUC)
	loans.Get("/", loanHandler.List)
	loans.Get("/:id", loanHandler.Get)
	loans.Get("/:id/acta", loanHandler.Acta)

	// Personas
	persons := api.Group("/persons")
	personHandler := NewPersonHandler(deps.ReportsUC)
	persons.Get("/:dni/history", personHandler.History)
	persons.Get("/:dni/history/export", personHandler.ExportHistory)
}
