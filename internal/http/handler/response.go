package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/ShortKey/internal/app/model"
	"github.com/sifan077/ShortKey/internal/app/probe"
	"github.com/sifan077/ShortKey/internal/app/service"
	"go.uber.org/zap"
)

// LinkInfo is the body returned by link creation and the admin view.
type LinkInfo struct {
	TargetURL string `json:"target_url"`
	Key       string `json:"key"`
	SecretKey string `json:"secret_key"`
	IsActive  bool   `json:"is_active"`
	Clicks    int64  `json:"clicks"`
	URL       string `json:"url"`
	AdminURL  string `json:"admin_url"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse carries a confirmation message.
type MessageResponse struct {
	Detail string `json:"detail"`
}

// LinkURLs derives public and admin URLs from the configured base URL.
type LinkURLs struct {
	base string
}

// NewLinkURLs keeps any path prefix of baseURL and drops trailing slashes.
func NewLinkURLs(baseURL string) LinkURLs {
	return LinkURLs{base: strings.TrimRight(baseURL, "/")}
}

// Short returns the redirect URL for key.
func (u LinkURLs) Short(key string) string {
	return u.base + "/" + key
}

// Admin returns the admin URL for secretKey.
func (u LinkURLs) Admin(secretKey string) string {
	return u.base + "/admin/" + secretKey
}

// Info renders link for the API.
func (u LinkURLs) Info(link *model.Link) LinkInfo {
	return LinkInfo{
		TargetURL: link.TargetURL,
		Key:       link.Key,
		SecretKey: link.SecretKey,
		IsActive:  link.IsActive,
		Clicks:    link.Clicks,
		URL:       u.Short(link.Key),
		AdminURL:  u.Admin(link.SecretKey),
	}
}

func detail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{Detail: message})
}

func notFound(c *fiber.Ctx) error {
	return detail(c, fiber.StatusNotFound, fmt.Sprintf("URL: %s doesn't exist", c.BaseURL()+c.OriginalURL()))
}

// writeServiceError maps service errors onto status codes. Unknown errors are
// logged and hidden behind a 500.
func writeServiceError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidURL):
		return detail(c, fiber.StatusBadRequest, "Your provided URL is not valid")
	case errors.Is(err, service.ErrInvalidKey):
		return detail(c, fiber.StatusBadRequest, "Your provided custom key is not valid: "+strings.TrimPrefix(err.Error(), service.ErrInvalidKey.Error()+": "))
	case errors.Is(err, service.ErrTargetUnreachable):
		var statusErr *probe.StatusError
		if errors.As(err, &statusErr) {
			return detail(c, fiber.StatusBadRequest,
				fmt.Sprintf("Target website is not accessible (status code %d).", statusErr.Code))
		}
		return detail(c, fiber.StatusBadRequest, "Target website is not accessible")
	case errors.Is(err, service.ErrKeyConflict):
		return detail(c, fiber.StatusConflict, "The requested key is already taken, please try another one")
	case errors.Is(err, service.ErrNotFound):
		return notFound(c)
	default:
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		return detail(c, fiber.StatusInternalServerError, "internal server error")
	}
}
