package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/duet/internal/calendar"
	"github.com/terraincognita07/duet/internal/security"
	"github.com/terraincognita07/duet/internal/services"
)

func (handler *Handler) GetFertility(c *fiber.Ctx) error {
	viewer, _ := currentViewer(c)
	return handler.respondFertility(c, viewer.FertilityRequest())
}

func (handler *Handler) GetCoupleFertility(c *fiber.Ctx) error {
	viewer, _ := currentViewer(c)

	code := security.NormalizeCoupleCode(c.Params("code"))
	if code == "" {
		return handler.apiError(c, fiber.StatusNotFound, "couple_not_found", nil)
	}

	request := viewer.FertilityRequest()
	request.OwnerID = ""
	request.CoupleCode = code
	return handler.respondFertility(c, request)
}

func (handler *Handler) respondFertility(c *fiber.Ctx, request services.FertilityRequest) error {
	horizon, ok := parseHorizon(c)
	if !ok {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_field", map[string]any{"Field": "horizon"})
	}
	request.Horizon = horizon

	projection, err := handler.cycleService.GetFertility(c.UserContext(), request)
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(projection)
}

func (handler *Handler) GetPredictions(c *fiber.Ctx) error {
	viewer, _ := currentViewer(c)

	visible, err := handler.cycleService.GetPredictions(c.UserContext(), viewer.FertilityRequest())
	if err != nil {
		return handler.serviceError(c, err)
	}

	body := fiber.Map{
		"visible":    visible.Visible,
		"gated":      visible.Gated,
		"version":    visible.Version,
		"prediction": visible.Prediction,
	}
	if visible.Prediction != nil {
		body["today_label"] = handler.currentLocalizer(c).Text("status." + string(visible.Prediction.TodayStatus))
	}
	return c.JSON(body)
}

// GetCalendarFeed serves the visible projection as text/calendar. Gated
// viewers receive a calendar without events.
func (handler *Handler) GetCalendarFeed(c *fiber.Ctx) error {
	viewer, _ := currentViewer(c)

	horizon, ok := parseHorizon(c)
	if !ok {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_field", map[string]any{"Field": "horizon"})
	}
	request := viewer.FertilityRequest()
	request.Horizon = horizon

	projection, err := handler.cycleService.GetFertility(c.UserContext(), request)
	if err != nil {
		return handler.serviceError(c, err)
	}

	feed, err := calendar.BuildICS(projection.Projection, handler.currentLocalizer(c), handler.now())
	if err != nil {
		return handler.serviceError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="duet.ics"`)
	c.Set(fiber.HeaderETag, `"`+strconv.FormatInt(projection.Version, 10)+`-`+strconv.Itoa(projection.Horizon)+`"`)
	return c.Send(feed)
}

func parseHorizon(c *fiber.Ctx) (int, bool) {
	raw := strings.TrimSpace(c.Query("horizon"))
	if raw == "" {
		return 0, true
	}
	horizon, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return horizon, true
}
