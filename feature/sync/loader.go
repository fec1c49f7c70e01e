package sync

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	scheduler *Scheduler
	handler   *Handler
}

// NewFeature creates a new Sync feature.
func NewFeature(deps Dependencies, cfg Config, logger *zap.Logger) *Feature {
	scheduler := NewScheduler(NewEngine(deps, cfg, logger), cfg.Interval, logger)
	return &Feature{scheduler: scheduler, handler: NewHandler(scheduler, logger)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "sync"
}

// IsEnabled checks if the feature is enabled. The on-demand trigger is
// always served; Config.Enabled only governs the periodic scheduler.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Scheduler returns the scheduler shared by the trigger route and the
// periodic loop.
func (f *Feature) Scheduler() *Scheduler {
	return f.scheduler
}
