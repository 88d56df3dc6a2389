package handlers

import (
	"errors"

	"gorillionaire/services"

	"github.com/gofiber/fiber/v2"
)

// errorJSON maps the service error taxonomy onto HTTP statuses. Transient
// storage errors come back 503 so clients know a retry is safe.
func errorJSON(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrTransient):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
