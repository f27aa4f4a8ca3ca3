package api

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/duet/internal/services"
)

// apiError writes {"error": code, "message": localized text}. code doubles
// as the message id under the "error." prefix.
func (handler *Handler) apiError(c *fiber.Ctx, status int, code string, data map[string]any) error {
	body := fiber.Map{
		"error":   code,
		"message": handler.currentLocalizer(c).Textf("error."+code, data),
	}
	if field, ok := data["Field"].(string); ok {
		body["field"] = field
	}
	return c.Status(status).JSON(body)
}

func (handler *Handler) serviceError(c *fiber.Ctx, err error) error {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_field", map[string]any{"Field": validationErr.Field})
	case errors.Is(err, services.ErrOwnerIDRequired):
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_field", map[string]any{"Field": "owner_id"})
	case errors.Is(err, services.ErrCycleNotConfigured):
		return handler.apiError(c, fiber.StatusNotFound, "cycle_not_configured", nil)
	case errors.Is(err, services.ErrCoupleNotFound):
		return handler.apiError(c, fiber.StatusNotFound, "couple_not_found", nil)
	case errors.Is(err, services.ErrCoupleAccessDenied):
		return handler.apiError(c, fiber.StatusForbidden, "couple_access_denied", nil)
	case errors.Is(err, services.ErrHistoryEntryNotFound):
		return handler.apiError(c, fiber.StatusNotFound, "history_entry_not_found", nil)
	case errors.Is(err, services.ErrAlreadyPaired):
		return handler.apiError(c, fiber.StatusConflict, "already_paired", nil)
	default:
		log.Printf("api: %s %s failed: %v", c.Method(), c.Path(), err)
		return handler.apiError(c, fiber.StatusInternalServerError, "internal", nil)
	}
}
