package sync

import (
	"context"
	"sync"

	"atdw-sync/core/logger"
	"atdw-sync/feature/catalog/attribute"
	"atdw-sync/feature/catalog/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler handles HTTP requests for synchronization.
type Handler struct {
	runner   *Runner
	registry *attribute.Registry
	db       *gorm.DB
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	last    *Report
}

// NewHandler creates a new HTTP handler.
func NewHandler(db *gorm.DB, runner *Runner, registry *attribute.Registry, logger *zap.Logger) *Handler {
	return &Handler{
		runner:   runner,
		registry: registry,
		db:       db,
		logger:   logger,
	}
}

// RegisterRoutes registers the synchronization routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Get("/status", h.HandleStatus)
	group.Post("/run", h.HandleRun)
	app.Get("/attributes", h.HandleListAttributes)
}

// HandleStatus reports whether a run is in progress, the last finished
// report, and the per-source checkpoints.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var checkpoints []models.SyncCheckpoint
	if err := h.db.WithContext(c.Context()).Find(&checkpoints).Error; err != nil {
		l.Error("Checkpoint lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.mu.Lock()
	running := h.running
	last := h.last
	h.mu.Unlock()

	return c.JSON(fiber.Map{
		"running":     running,
		"last_report": last,
		"checkpoints": checkpoints,
	})
}

// HandleRun starts a synchronization run in the background. A second
// request while one is in progress is rejected with a conflict.
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "a synchronization run is already in progress",
		})
	}
	h.running = true
	h.mu.Unlock()

	l.Info("Synchronization run accepted")

	// The run outlives the request, so it gets its own context.
	go func() {
		report, err := h.runner.Run(context.Background())
		if err != nil {
			h.logger.Error("Synchronization run failed", zap.Error(err))
		}
		h.mu.Lock()
		h.running = false
		if report != nil {
			h.last = report
		}
		h.mu.Unlock()
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "started",
	})
}

// HandleListAttributes returns every known attribute definition.
func (h *Handler) HandleListAttributes(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	defs, err := h.registry.List()
	if err != nil {
		l.Error("Attribute listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"mode":       h.registry.Mode(),
		"attributes": defs,
	})
}
