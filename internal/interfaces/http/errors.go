package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
	"github.com/jhoicas/prestamos-api/internal/application/lending"
	"github.com/jhoicas/prestamos-api/internal/domain"
)

// writeError traduce los errores de dominio a la respuesta HTTP.
func writeError(c *fiber.Ctx, err error) error {
	status, body := errorResponse(err)
	return c.Status(status).JSON(body)
}

func errorResponse(err error) (int, dto.ErrorResponse) {
	status, body := classify(err)
	var comp *lending.CompensationError
	if errors.As(err, &comp) {
		body.Message += ". " + comp.Error()
	}
	return status, body
}

func classify(err error) (int, dto.ErrorResponse) {
	var (
		verr   *domain.ValidationError
		stale  *domain.StaleStockError
		remote *domain.RemoteError
	)
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: "revise los campos del formulario", Fields: verr.Fields}
	case errors.As(err, &stale):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "STALE_STOCK", Message: stale.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()}
	case errors.Is(err, domain.ErrSubmissionInFlight):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "IN_FLIGHT", Message: err.Error()}
	case errors.Is(err, domain.ErrFlowClosed):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "FLOW_CLOSED", Message: err.Error()}
	case errors.Is(err, domain.ErrNoPendingOverride):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "NO_PENDING_OVERRIDE", Message: err.Error()}
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()}
	case errors.Is(err, lending.ErrReturnFailed):
		return fiber.StatusBadGateway, dto.ErrorResponse{Code: "RETURN_FAILED", Message: lending.ErrReturnFailed.Error()}
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrDuplicateItem),
		errors.Is(err, domain.ErrItemUnavailable),
		errors.Is(err, domain.ErrQuantityTooLarge),
		errors.Is(err, domain.ErrItemNotInDraft),
		errors.Is(err, domain.ErrRequestorNotValid),
		errors.Is(err, domain.ErrLoanNotDelivered):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "BUSINESS_RULE", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.As(err, &remote):
		// Rechazo de negocio del backend (4xx o success=false) frente a falla del backend (5xx).
		if remote.Status >= 500 {
			return fiber.StatusBadGateway, dto.ErrorResponse{Code: "BACKEND_ERROR", Message: remote.Message()}
		}
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "BACKEND_REJECTED", Message: remote.Message()}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()}
}
