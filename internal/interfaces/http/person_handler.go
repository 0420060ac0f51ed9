package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/prestamos-api/internal/application/report"
)

// PersonHandler historial de préstamos por DNI.
type PersonHandler struct {
	reports *report.ReportUseCase
}

// NewPersonHandler construye el handler.
func NewPersonHandler(reports *report.ReportUseCase) *PersonHandler {
	return &PersonHandler{reports: reports}
}

// History godoc
// @Summary      Historial de préstamos de una persona
// @Tags         persons
// @Security     Bearer
// @Produce      json
// @Param        dni  path  string  true  "DNI"
// @Success      200  {object}  dto.PersonHistoryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/persons/{dni}/history [get]
func (h *PersonHandler) History(c *fiber.Ctx) error {
	out, err := h.reports.History(c.UserContext(), c.Params("dni"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ExportHistory godoc
// @Summary      Historial en Excel
// @Tags         persons
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        dni  path  string  true  "DNI"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/persons/{dni}/history/export [get]
func (h *PersonHandler) ExportHistory(c *fiber.Ctx) error {
	data, filename, err := h.reports.ExportHistory(c.UserContext(), c.Params("dni"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}
