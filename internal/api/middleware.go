package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/duet/internal/i18n"
	"github.com/terraincognita07/duet/internal/services"
)

const (
	contextViewerKey    = "current_viewer"
	contextLocalizerKey = "current_localizer"
	bearerPrefix        = "Bearer "
)

// Viewer is the authenticated caller as described by its token.
type Viewer struct {
	UserID      string
	Role        services.Role
	Entitlement services.Entitlement
	CoupleCode  string
}

// FertilityRequest targets the viewer's own profile when they own one, and
// their couple's profile otherwise.
func (viewer Viewer) FertilityRequest() services.FertilityRequest {
	request := services.FertilityRequest{
		ViewerID:    viewer.UserID,
		Role:        viewer.Role,
		Entitlement: viewer.Entitlement,
	}
	if viewer.Role == services.RoleOwner {
		request.OwnerID = viewer.UserID
	} else {
		request.CoupleCode = viewer.CoupleCode
	}
	return request
}

func currentViewer(c *fiber.Ctx) (Viewer, bool) {
	viewer, ok := c.Locals(contextViewerKey).(Viewer)
	return viewer, ok
}

func (handler *Handler) currentLocalizer(c *fiber.Ctx) *i18n.Localizer {
	if localizer, ok := c.Locals(contextLocalizerKey).(*i18n.Localizer); ok && localizer != nil {
		return localizer
	}
	return handler.i18n.Localizer(handler.i18n.DefaultLanguage())
}
