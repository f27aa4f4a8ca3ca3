package api

import (
	"github.com/terraincognita07/duet/internal/config"
	"github.com/terraincognita07/duet/internal/db"
	"github.com/terraincognita07/duet/internal/services"
)

func (handler *Handler) withDependencies(cfg config.Config) *Handler {
	handler.repositories = db.NewRepositories(handler.db)
	handler.cycleService = services.NewCycleService(
		handler.repositories.CycleProfiles,
		handler.repositories.CycleHistory,
		handler.repositories.Couples,
		cfg,
		handler.location,
	)
	handler.coupleService = services.NewCoupleService(handler.repositories.Couples)
	return handler
}
