package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/wheslancardoso/backend-mindmesh/internal/apperror"
	"github.com/wheslancardoso/backend-mindmesh/internal/pkg/logger"
)

// ErrorHandlerMiddleware translates errors returned by controllers into a
// JSON envelope. AppError carries its own status and code; anything else is
// a 500 with the detail kept out of the response body.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Status >= 500 {
				log.Error("http", "request failed", map[string]interface{}{
					"path":  ctx.Path(),
					"code":  appErr.Code,
					"error": appErr.Error(),
				})
			}
			return ctx.Status(appErr.Status).JSON(fiber.Map{
				"success": false,
				"code":    appErr.Code,
				"message": appErr.Message,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{
				"success": false,
				"code":    apperror.CodeInternal,
				"message": fiberErr.Message,
			})
		}

		log.Error("http", "unhandled error", map[string]interface{}{
			"path":  ctx.Path(),
			"error": err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"code":    apperror.CodeInternal,
			"message": "internal server error",
		})
	}
}
