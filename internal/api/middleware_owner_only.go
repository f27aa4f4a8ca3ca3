package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/duet/internal/services"
)

func (handler *Handler) OwnerOnly(c *fiber.Ctx) error {
	viewer, ok := currentViewer(c)
	if !ok {
		return handler.apiError(c, fiber.StatusUnauthorized, "unauthorized", nil)
	}
	if viewer.Role != services.RoleOwner {
		return handler.apiError(c, fiber.StatusForbidden, "owner_only", nil)
	}
	return c.Next()
}
