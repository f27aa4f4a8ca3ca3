package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	registerAPIRoutes(app, handler)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api", handler.AuthRequired)

	cycle := api.Group("/cycle")
	cycle.Get("", handler.GetCycle)
	cycle.Post("", handler.OwnerOnly, handler.SaveCycle)
	cycle.Get("/history", handler.GetHistory)
	cycle.Post("/periods", handler.OwnerOnly, handler.StartPeriod)
	cycle.Put("/periods/:id/end", handler.OwnerOnly, handler.EndPeriod)

	fertility := api.Group("/fertility")
	fertility.Get("", handler.GetFertility)
	fertility.Get("/predictions", handler.GetPredictions)
	fertility.Get("/calendar.ics", handler.GetCalendarFeed)
	fertility.Get("/couple/:code", handler.GetCoupleFertility)

	api.Post("/couple", handler.OwnerOnly, handler.PairPartner)
}
