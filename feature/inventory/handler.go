package inventory

import (
	"context"

	"policy-agent/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the synchronization engine.
type Handler struct {
	sync *Synchronizer
	log  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(sync *Synchronizer, log *zap.Logger) *Handler {
	return &Handler{sync: sync, log: log}
}

// RegisterRoutes registers the engine routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/v1")
	group.Post("/events", h.HandleEvent)
	group.Post("/sync", h.HandleSync)
	group.Get("/status", h.HandleStatus)
}

type eventRequest struct {
	Kind string   `json:"kind"`
	IDs  []string `json:"ids"`
}

// HandleEvent accepts one change notification and submits the named objects
// for reconciliation at the highest priority.
func (h *Handler) HandleEvent(c *fiber.Ctx) error {
	l := logger.WithRayID(h.log, c)

	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid event payload",
		})
	}
	if len(req.IDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ids is required",
		})
	}

	if err := h.sync.OnEvent(req.Kind, req.IDs); err != nil {
		l.Warn("Rejected change notification", zap.String("kind", req.Kind), zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	l.Info("Accepted change notification",
		zap.String("kind", req.Kind),
		zap.Int("ids", len(req.IDs)),
	)
	return c.SendStatus(fiber.StatusAccepted)
}

// HandleSync triggers an inventory synchronization pass. The pass decision
// runs asynchronously; the endpoint never blocks on corrective work.
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.log, c)
	go func() {
		if err := h.sync.SyncInventory(context.Background()); err != nil {
			l.Error("Manual synchronization failed", zap.Error(err))
		}
	}()
	return c.SendStatus(fiber.StatusAccepted)
}

// HandleStatus returns the engine snapshot.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.sync.Status())
}
