package inventory

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature exposes the synchronization engine on the agent's web surface.
type Feature struct {
	handler *Handler
}

// NewFeature creates the inventory feature.
func NewFeature(sync *Synchronizer, log *zap.Logger) *Feature {
	return &Feature{handler: NewHandler(sync, log)}
}

// Name returns the feature name.
func (f *Feature) Name() string { return "inventory" }

// IsEnabled reports whether the feature is active. The engine is the agent's
// reason to exist, so it is always on.
func (f *Feature) IsEnabled() bool { return true }

// Load registers the feature routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
