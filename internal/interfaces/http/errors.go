package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/cafetero/cafeteria-api/internal/application/dto"
	"github.com/cafetero/cafeteria-api/internal/domain"
)

// fail traduce un error de dominio a una respuesta HTTP. Los casos de uso
// envuelven los errores sentinela con fmt.Errorf("...: %w"), así que la
// comparación es con errors.Is, nunca con ==.
func fail(c *fiber.Ctx, err error) error {
	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrPeriodClosed):
		// cerrar dos veces es un error del caller, no un conflicto transitorio
		status, code = fiber.StatusBadRequest, "PERIOD_CLOSED"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrNoRecipe):
		status, code = fiber.StatusNotFound, "NO_RECIPE"
	case errors.Is(err, domain.ErrDuplicate):
		status, code = fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrConflict):
		status, code = fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrSyncInProgress):
		status, code = fiber.StatusConflict, "SYNC_IN_PROGRESS"
	case errors.Is(err, domain.ErrInsufficientStock):
		status, code = fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrExternalAPI):
		status, code = fiber.StatusBadGateway, "POS_UPSTREAM"
	case errors.Is(err, domain.ErrConfiguration):
		status, code = fiber.StatusInternalServerError, "CONFIGURATION"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}
