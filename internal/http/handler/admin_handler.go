package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/ShortKey/internal/app/service"
	"go.uber.org/zap"
)

// AdminDeps groups dependencies required by admin handlers.
type AdminDeps struct {
	Logger      *zap.Logger
	LinkService service.LinkService
	URLs        LinkURLs
}

// AdminHandler serves the secret-key endpoints. Possessing the secret key is
// the only authorization.
type AdminHandler struct {
	logger      *zap.Logger
	linkService service.LinkService
	urls        LinkURLs
}

// NewAdminHandler creates an admin handler with the provided dependencies.
func NewAdminHandler(deps AdminDeps) *AdminHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		logger:      logger,
		linkService: deps.LinkService,
		urls:        deps.URLs,
	}
}

// Register wires admin routes onto the provided router.
func (h *AdminHandler) Register(router fiber.Router) {
	admin := router.Group("/admin")
	{
		admin.Get("/:secret_key", h.Info)
		admin.Delete("/:secret_key", h.Deactivate)
		admin.Patch("/:secret_key/activate", h.Activate)
	}
}

// Info handles GET /admin/:secret_key
func (h *AdminHandler) Info(c *fiber.Ctx) error {
	link, err := h.linkService.GetAdminView(c.UserContext(), c.Params("secret_key"))
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(h.urls.Info(link))
}

// Activate handles PATCH /admin/:secret_key/activate
func (h *AdminHandler) Activate(c *fiber.Ctx) error {
	if _, err := h.linkService.Reactivate(c.UserContext(), c.Params("secret_key")); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return detail(c, fiber.StatusNotFound, "URL not found")
		}
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(MessageResponse{Detail: "URL reactivated successfully"})
}

// Deactivate handles DELETE /admin/:secret_key
func (h *AdminHandler) Deactivate(c *fiber.Ctx) error {
	target, err := h.linkService.Deactivate(c.UserContext(), c.Params("secret_key"))
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(MessageResponse{
		Detail: fmt.Sprintf("Successfully deleted shortened URL for '%s'", target),
	})
}
