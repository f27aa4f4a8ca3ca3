package api

import (
	"github.com/gofiber/fiber/v2"
)

type pairInput struct {
	PartnerID string `json:"partner_id"`
}

func (handler *Handler) PairPartner(c *fiber.Ctx) error {
	viewer, _ := currentViewer(c)

	var input pairInput
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_body", nil)
	}

	couple, err := handler.coupleService.Pair(c.UserContext(), viewer.UserID, input.PartnerID)
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"code":       couple.Code,
		"owner_id":   couple.OwnerID,
		"partner_id": couple.PartnerID,
		"paired_at":  couple.PairedAt,
	})
}
