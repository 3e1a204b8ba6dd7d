package httputil

import (
	"errors"

	apperrors "car-listing/internal/shared/errors"
	"car-listing/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// Success writes {success:true, ...body} with status.
func Success(c *fiber.Ctx, status int, body fiber.Map) error {
	out := fiber.Map{"success": true}
	for k, v := range body {
		out[k] = v
	}
	return c.Status(status).JSON(out)
}

// Fail writes the {success:false, message} envelope for err. Server-side
// failures are logged with the request context; their cause never reaches
// the client.
func Fail(c *fiber.Ctx, log logger.Logger, err error) error {
	status := apperrors.HTTPStatus(err)
	message := apperrors.PublicMessage(err)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
	}

	if status >= fiber.StatusInternalServerError && log != nil {
		log.WithContext(c.UserContext()).WithFields(map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
			"status": status,
		}).Errorf("request failed: %v", err)
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// ErrorHandler is a fiber.ErrorHandler that answers every unhandled error
// with the envelope.
func ErrorHandler(log logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return Fail(c, log, err)
	}
}
