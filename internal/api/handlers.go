package api

import (
	"errors"
	"time"

	"github.com/terraincognita07/duet/internal/config"
	"github.com/terraincognita07/duet/internal/db"
	"github.com/terraincognita07/duet/internal/i18n"
	"github.com/terraincognita07/duet/internal/services"
	"gorm.io/gorm"
)

type Handler struct {
	db            *gorm.DB
	secretKey     []byte
	location      *time.Location
	i18n          *i18n.Manager
	now           func() time.Time
	repositories  *db.Repositories
	cycleService  *services.CycleService
	coupleService *services.CoupleService
}

func NewHandler(database *gorm.DB, secret string, cfg config.Config, location *time.Location, i18nManager *i18n.Manager) (*Handler, error) {
	if database == nil {
		return nil, errors.New("database is required")
	}
	if i18nManager == nil {
		return nil, errors.New("i18n manager is required")
	}
	if secret == "" {
		return nil, errors.New("secret key is required")
	}
	if location == nil {
		location = time.UTC
	}

	handler := &Handler{
		db:        database,
		secretKey: []byte(secret),
		location:  location,
		i18n:      i18nManager,
		now:       time.Now,
	}
	return handler.withDependencies(cfg), nil
}
