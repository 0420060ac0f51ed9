package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
	"github.com/jhoicas/prestamos-api/internal/application/lending"
)

// DraftHandler borradores de préstamo: formulario manual o por escaneo.
type DraftHandler struct {
	uc *lending.DraftUseCase
}

// NewDraftHandler construye el handler.
func NewDraftHandler(uc *lending.DraftUseCase) *DraftHandler {
	return &DraftHandler{uc: uc}
}

// Open godoc
// @Summary      Abrir borrador de préstamo
// @Tags         loan-drafts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OpenDraftRequest  false  "Modo: manual | scan"
// @Success      201   {object}  dto.DraftResponse
// @Router       /api/loan-drafts [post]
func (h *DraftHandler) Open(c *fiber.Ctx) error {
	var in dto.OpenDraftRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	out, err := h.uc.Open(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get godoc
// @Summary      Ver borrador
// @Tags         loan-drafts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del borrador"
// @Success      200  {object}  dto.DraftResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/loan-drafts/{id} [get]
func (h *DraftHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Discard godoc
// @Summary      Descartar borrador
// @Description  Si había un préstamo retenido por lista negra, revierte las condiciones aplicadas.
// @Tags         loan-drafts
// @Security     Bearer
// @Param        id   path  string  true  "ID del borrador"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/loan-drafts/{id} [delete]
func (h *DraftHandler) Discard(c *fiber.Ctx) error {
	if err := h.uc.Discard(c.UserContext(), GetUserID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ValidateRequestor godoc
// @Summary      Validar solicitante por DNI
// @Description  Un DNI inexistente no es error HTTP: queda en requestor_error del borrador.
// @Tags         loan-drafts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID del borrador"
// @Param        body  body  dto.ValidateRequestorRequest  true  "DNI"
// @Success      200   {object}  dto.DraftResponse
// @Router       /api/loan-drafts/{id}/requestor [post]
func (h *DraftHandler) ValidateRequestor(c *fiber.Ctx) error {
	var in dto.ValidateRequestorRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.ValidateRequestor(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar datos del préstamo
// @Tags         loan-drafts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del borrador"
// @Param        body  body  dto.UpdateDraftRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.DraftResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/loan-drafts/{id} [patch]
func (h *DraftHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateDraftRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Update(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AddItem godoc
// @Summary      Agregar ítem por código
// @Tags         loan-drafts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID del borrador"
// @Param        body  body  dto.AddItemRequest  true  "Código de barras"
// @Success      200   {object}  dto.DraftResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/loan-drafts/{id}/items [post]
func (h *DraftHandler) AddItem(c *fiber.Ctx) error {
	var in dto.AddItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "code es requerido"})
	}
	out, err := h.uc.AddItem(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateItem godoc
// @Summary      Cambiar cantidad, condición u observaciones de un ítem
// @Tags         loan-drafts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del borrador"
// @Param        code  path  string                 true  "Código del ítem"
// @Param        body  body  dto.UpdateItemRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.DraftResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/loan-drafts/{id}/items/{code} [patch]
func (h *DraftHandler) UpdateItem(c *fiber.Ctx) error {
	var in dto.UpdateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.UpdateItem(c.UserContext(), GetUserID(c), c.Params("id"), c.Params("code"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RemoveItem godoc
// @Summary      Quitar ítem
// @Tags         loan-drafts
// @Security     Bearer
// @Produce      json
// @Param        id    path  string  true  "ID del borrador"
// @Param        code  path  string  true  "Código del ítem"
// @Success      200   {object}  dto.DraftResponse
// @Router       /api/loan-drafts/{id}/items/{code} [delete]
func (h *DraftHandler) RemoveItem(c *fiber.Ctx) error {
	out, err := h.uc.RemoveItem(c.UserContext(), GetUserID(c), c.Params("id"), c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Submit godoc
// @Summary      Enviar préstamo
// @Description  201 con el préstamo creado, o 200 con requires_confirmation si el solicitante
// @Description  está en lista negra y el operador debe confirmar.
// @Tags         loan-drafts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del borrador"
// @Success      201  {object}  dto.SubmitResponse
// @Success      200  {object}  dto.SubmitResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/loan-drafts/{id}/submit [post]
func (h *DraftHandler) Submit(c *fiber.Ctx) error {
	out, err := h.uc.Submit(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return submitted(c, out)
}

// ConfirmOverride godoc
// @Summary      Confirmar préstamo a persona en lista negra
// @Tags         loan-drafts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del borrador"
// @Success      201  {object}  dto.SubmitResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/loan-drafts/{id}/override [post]
func (h *DraftHandler) ConfirmOverride(c *fiber.Ctx) error {
	out, err := h.uc.ConfirmOverride(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return submitted(c, out)
}

// CancelOverride godoc
// @Summary      Cancelar préstamo retenido por lista negra
// @Tags         loan-drafts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del borrador"
// @Success      200  {object}  dto.DraftResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/loan-drafts/{id}/override [delete]
func (h *DraftHandler) CancelOverride(c *fiber.Ctx) error {
	out, err := h.uc.CancelOverride(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func submitted(c *fiber.Ctx, out *dto.SubmitResponse) error {
	if out.RequiresConfirmation {
		return c.JSON(out)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
