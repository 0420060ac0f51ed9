package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
	"github.com/jhoicas/prestamos-api/internal/application/lending"
)

// ReturnHandler sesiones de devolución: revisión ítem por ítem y envío en lote.
type ReturnHandler struct {
	uc *lending.ReturnUseCase
}

// NewReturnHandler construye el handler.
func NewReturnHandler(uc *lending.ReturnUseCase) *ReturnHandler {
	return &ReturnHandler{uc: uc}
}

// Open godoc
// @Summary      Iniciar devolución de un préstamo entregado
// @Tags         return-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OpenReturnRequest  true  "Préstamo"
// @Success      201   {object}  dto.ReturnSessionResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/return-sessions [post]
func (h *ReturnHandler) Open(c *fiber.Ctx) error {
	var in dto.OpenReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Open(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get godoc
// @Summary      Ver sesión de devolución
// @Tags         return-sessions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.ReturnSessionResponse
// @Router       /api/return-sessions/{id} [get]
func (h *ReturnHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Next godoc
// @Summary      Siguiente ítem
// @Tags         return-sessions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.ReturnSessionResponse
// @Router       /api/return-sessions/{id}/next [post]
func (h *ReturnHandler) Next(c *fiber.Ctx) error {
	out, err := h.uc.Next(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Previous godoc
// @Summary      Ítem anterior
// @Tags         return-sessions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.ReturnSessionResponse
// @Router       /api/return-sessions/{id}/previous [post]
func (h *ReturnHandler) Previous(c *fiber.Ctx) error {
	out, err := h.uc.Previous(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Notas de la devolución
// @Tags         return-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID de la sesión"
// @Param        body  body  dto.UpdateReturnRequest  true  "Notas"
// @Success      200   {object}  dto.ReturnSessionResponse
// @Router       /api/return-sessions/{id} [patch]
func (h *ReturnHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.UpdateNotes(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateItem godoc
// @Summary      Condición, observaciones y cantidad de un ítem
// @Description  quantity_input se ignora si está fuera de [1, cantidad prestada]; con blur se ajusta al rango.
// @Tags         return-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id     path  string                       true  "ID de la sesión"
// @Param        index  path  int                          true  "Posición del ítem (desde 0)"
// @Param        body   body  dto.UpdateReturnItemRequest  true  "Campos a cambiar"
// @Success      200    {object}  dto.ReturnSessionResponse
// @Router       /api/return-sessions/{id}/items/{index} [patch]
func (h *ReturnHandler) UpdateItem(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil || index < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_INDEX", Message: "index debe ser un entero no negativo"})
	}
	var in dto.UpdateReturnItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.UpdateItem(c.UserContext(), GetUserID(c), c.Params("id"), index, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Submit godoc
// @Summary      Registrar la devolución
// @Tags         return-sessions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.ReturnSubmitResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/return-sessions/{id}/submit [post]
func (h *ReturnHandler) Submit(c *fiber.Ctx) error {
	out, err := h.uc.Submit(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// MarkDefaulter godoc
// @Summary      Marcar al solicitante como moroso
// @Tags         return-sessions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.ReturnSessionResponse
// @Router       /api/return-sessions/{id}/defaulter [post]
func (h *ReturnHandler) MarkDefaulter(c *fiber.Ctx) error {
	out, err := h.uc.MarkDefaulter(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UnmarkDefaulter godoc
// @Summary      Quitar la marca de moroso
// @Tags         return-sessions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.ReturnSessionResponse
// @Router       /api/return-sessions/{id}/defaulter [delete]
func (h *ReturnHandler) UnmarkDefaulter(c *fiber.Ctx) error {
	out, err := h.uc.UnmarkDefaulter(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
