package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/duet/internal/services"
)

type periodEndInput struct {
	Date string `json:"end_date"`
}

func (handler *Handler) SaveCycle(c *fiber.Ctx) error {
	viewer, _ := currentViewer(c)

	var input services.CycleInput
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_body", nil)
	}

	saved, err := handler.cycleService.SaveCycle(c.UserContext(), viewer.UserID, input)
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(saved)
}

func (handler *Handler) GetCycle(c *fiber.Ctx) error {
	viewer, _ := currentViewer(c)

	view, err := handler.cycleService.ViewCycle(c.UserContext(), viewer.FertilityRequest())
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(view)
}

func (handler *Handler) StartPeriod(c *fiber.Ctx) error {
	viewer, _ := currentViewer(c)

	var input services.StartPeriodInput
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_body", nil)
	}

	result, err := handler.cycleService.StartPeriod(c.UserContext(), viewer.UserID, input)
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (handler *Handler) EndPeriod(c *fiber.Ctx) error {
	viewer, _ := currentViewer(c)

	var input periodEndInput
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_body", nil)
	}

	entry, err := handler.cycleService.EndPeriod(c.UserContext(), viewer.UserID, c.Params("id"), input.Date)
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(entry)
}

func (handler *Handler) GetHistory(c *fiber.Ctx) error {
	viewer, _ := currentViewer(c)

	history, err := handler.cycleService.GetHistory(c.UserContext(), viewer.FertilityRequest())
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(history)
}
