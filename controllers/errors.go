package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"metahire/middleware"
	"metahire/services"
	"metahire/utils"
)

// statusFor maps a service error kind to its HTTP status.
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindConflict:
		return fiber.StatusConflict
	case services.KindValidation:
		return fiber.StatusBadRequest
	case services.KindPartialFailure:
		return fiber.StatusMultiStatus
	case services.KindForbidden:
		return fiber.StatusForbidden
	case services.KindUnauthorized:
		return fiber.StatusUnauthorized
	}
	return fiber.StatusInternalServerError
}

// handleError writes the response for a failed service call. Storage and
// unexpected errors are logged and reported; their cause is not exposed.
func handleError(c *fiber.Ctx, err error, action string) error {
	kind := services.KindOf(err)
	status := statusFor(kind)

	var svcErr *services.Error
	if !errors.As(err, &svcErr) || status == fiber.StatusInternalServerError {
		utils.LogError(action, err, map[string]interface{}{
			"path":       c.Path(),
			"method":     c.Method(),
			"profile_id": middleware.CallerFrom(c).ProfileID(),
		})
		message := "Internal server error"
		if svcErr != nil {
			message = svcErr.Message
		}
		return utils.ErrorResponse(c, status, message, nil)
	}

	if kind == services.KindValidation {
		return utils.ErrorResponse(c, status, svcErr.Message, svcErr.Err)
	}
	return utils.ErrorResponse(c, status, svcErr.Message, nil)
}

type idsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}
