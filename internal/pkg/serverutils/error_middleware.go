package serverutils

import (
	"errors"

	"ai-scholarmatch-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps application errors to HTTP status codes and
// the standard response envelope. Controllers just return errors.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			status := fiber.StatusInternalServerError
			switch appErr.Kind {
			case apperror.KindValidation:
				status = fiber.StatusBadRequest
			case apperror.KindInvalidSessionState:
				status = fiber.StatusConflict
			case apperror.KindNotFound:
				status = fiber.StatusNotFound
			case apperror.KindCollaborator, apperror.KindIndex:
				status = fiber.StatusBadGateway
			}
			return ctx.Status(status).JSON(ErrorResponse(status, appErr.Error()))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).
			JSON(ErrorResponse(fiber.StatusInternalServerError, "internal server error"))
	}
}
