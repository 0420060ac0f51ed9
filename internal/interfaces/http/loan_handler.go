package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
	"github.com/jhoicas/prestamos-api/internal/application/report"
	"github.com/jhoicas/prestamos-api/internal/application/store"
)

// LoanHandler listado persistente, detalle y acta de préstamos.
type LoanHandler struct {
	list    *store.LoanListStore
	reports *report.ReportUseCase
}

// NewLoanHandler construye el handler.
func NewLoanHandler(list *store.LoanListStore, reports *report.ReportUseCase) *LoanHandler {
	return &LoanHandler{list: list, reports: reports}
}

// List godoc
// @Summary      Listar préstamos
// @Description  Los parámetros presentes actualizan la vista guardada del operador; los ausentes
// @Description  se toman de ella. Cambiar status o search vuelve a la página 1.
// @Tags         loans
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "PENDING, APPROVED, REJECTED, DELIVERED, RETURNED, OVERDUE, CANCELLED"
// @Param        search  query  string  false  "Texto libre"
// @Param        page    query  int     false  "Página"  default(1)
// @Param        limit   query  int     false  "Tamaño"  default(10)
// @Success      200     {object}  dto.LoanListResponse
// @Failure      502     {object}  dto.LoanListResponse
// @Router       /api/loans [get]
func (h *LoanHandler) List(c *fiber.Ctx) error {
	patch, err := listPatch(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: err.Error()})
	}
	operatorID := GetUserID(c)
	if _, err := h.list.Apply(c.UserContext(), operatorID, patch); err != nil {
		return writeError(c, err)
	}
	out, err := h.list.Refresh(c.UserContext(), operatorID)
	if err != nil {
		if out == nil {
			return writeError(c, err)
		}
		status, _ := errorResponse(err)
		return c.Status(status).JSON(out)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener préstamo
// @Tags         loans
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del préstamo"
// @Success      200  {object}  dto.LoanResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/loans/{id} [get]
func (h *LoanHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ID", Message: "id debe ser un entero positivo"})
	}
	out, err := h.list.Get(c.UserContext(), int64(id))
	if err != nil {
		return writeError(c, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "préstamo no encontrado"})
	}
	return c.JSON(out)
}

// Acta godoc
// @Summary      Acta de préstamo en PDF
// @Tags         loans
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  int  true  "ID del préstamo"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/loans/{id}/acta [get]
func (h *LoanHandler) Acta(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ID", Message: "id debe ser un entero positivo"})
	}
	pdf, filename, err := h.reports.Acta(c.UserContext(), int64(id))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s"`, filename))
	return c.Send(pdf)
}

func listPatch(c *fiber.Ctx) (store.ListPatch, error) {
	var p store.ListPatch
	args := c.Context().QueryArgs()
	if args.Has("status") {
		s := c.Query("status")
		p.Status = &s
	}
	if args.Has("search") {
		s := c.Query("search")
		p.Search = &s
	}
	for _, key := range []string{"page", "limit"} {
		if !args.Has(key) {
			continue
		}
		n, err := args.GetUint(key)
		if err != nil {
			return p, fmt.Errorf("%s debe ser un entero positivo", key)
		}
		if key == "page" {
			p.Page = &n
		} else {
			p.Limit = &n
		}
	}
	return p, nil
}
