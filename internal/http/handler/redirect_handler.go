package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/ShortKey/internal/app/service"
	"go.uber.org/zap"
)

const (
	welcomeMessage = "Welcome to the URL shortener API :)"
	healthTimeout  = 2 * time.Second
)

// Pinger reports whether a dependency answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RedirectDeps groups dependencies required by redirect handlers.
type RedirectDeps struct {
	Logger      *zap.Logger
	LinkService service.LinkService
	Database    Pinger
}

// RedirectHandler serves the public side: welcome, health and redirects.
type RedirectHandler struct {
	logger      *zap.Logger
	linkService service.LinkService
	database    Pinger
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:      logger,
		linkService: deps.LinkService,
		database:    deps.Database,
	}
}

// Register wires redirect routes onto the provided router. The catch-all
// key route must be registered after every fixed path.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/", h.Root)
	router.Get("/health", h.Health)
	router.Get("/:key", h.Resolve)
}

// Root handles GET /
func (h *RedirectHandler) Root(c *fiber.Ctx) error {
	return c.JSON(welcomeMessage)
}

// Health handles GET /health and pings the database.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	status := fiber.Map{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if h.database == nil {
		return c.JSON(status)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()
	if err := h.database.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		status["status"] = "unavailable"
		status["database"] = "down"
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	status["database"] = "up"
	return c.JSON(status)
}

// Resolve handles GET /:key, counts the click and redirects to the target.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	key := c.Params("key")

	link, err := h.linkService.ResolveAndRecordClick(c.UserContext(), key)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}

	h.logger.Debug("redirecting short link", zap.String("key", key), zap.String("target", link.TargetURL))
	return c.Redirect(link.TargetURL, fiber.StatusTemporaryRedirect)
}
