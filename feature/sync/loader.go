package sync

import (
	"atdw-sync/feature/catalog/attribute"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	handler *Handler
	enabled bool
}

// NewFeature creates a new synchronization feature.
func NewFeature(db *gorm.DB, runner *Runner, registry *attribute.Registry, logger *zap.Logger, cfg Config) *Feature {
	h := NewHandler(db, runner, registry, logger)
	return &Feature{handler: h, enabled: cfg.Enabled}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "sync"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.enabled
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
