package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/ShortKey/internal/app/service"
	"go.uber.org/zap"
)

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger      *zap.Logger
	LinkService service.LinkService
	URLs        LinkURLs
}

// APIHandler implements link creation.
type APIHandler struct {
	logger      *zap.Logger
	linkService service.LinkService
	urls        LinkURLs
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:      logger,
		linkService: deps.LinkService,
		urls:        deps.URLs,
	}
}

// Register wires API routes onto the provided router.
func (h *APIHandler) Register(router fiber.Router) {
	router.Post("/url", h.CreateLink)
}

// CreateLinkRequest represents the request body for creating a link.
type CreateLinkRequest struct {
	TargetURL string `json:"target_url"`
	CustomKey string `json:"custom_key,omitempty"`
}

// CreateLink handles POST /url
func (h *APIHandler) CreateLink(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.TargetURL == "" {
		return detail(c, fiber.StatusBadRequest, "target_url is required")
	}

	link, err := h.linkService.CreateLink(c.UserContext(), service.CreateLinkInput{
		TargetURL: req.TargetURL,
		CustomKey: req.CustomKey,
	})
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}

	return c.JSON(h.urls.Info(link))
}
