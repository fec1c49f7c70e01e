package sync

import (
	"context"
	"errors"

	"sighting-engine/core/logger"
	"sighting-engine/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the import.
type Handler struct {
	scheduler *Scheduler
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(scheduler *Scheduler, logger *zap.Logger) *Handler {
	return &Handler{scheduler: scheduler, logger: logger}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/sync", auth.RequireModerator(), h.HandleRun)
}

// HandleRun starts an import in the background.
// @Summary Run Sync
// @Description Start an import of species and research-grade observations from iNaturalist followed by a recount of the denormalised counters. The run continues after the response; progress is logged.
// @Tags sync
// @Produce json
// @Security BearerAuth
// @Success 202 {object} map[string]string "Sync started"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 409 {object} map[string]string "A run is already in progress"
// @Router /api/sync [post]
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRequest(h.logger, c)

	if err := h.scheduler.Trigger(context.WithoutCancel(c.UserContext())); errors.Is(err, ErrAlreadyRunning) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A sync run is already in progress."})
	}
	l.Info("Sync started")
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "Sync started."})
}
