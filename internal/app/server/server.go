package server

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/ShortKey/internal/app/service"
	inthttp "github.com/sifan077/ShortKey/internal/http/handler"
	"github.com/sifan077/ShortKey/internal/http/middleware"
	"go.uber.org/zap"
)

// Dependencies bundles infrastructure dependencies required by the HTTP server.
type Dependencies struct {
	Logger *zap.Logger

	// BaseURL is the public origin used in url and admin_url fields.
	BaseURL  string
	Links    service.LinkService
	Database inthttp.Pinger
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default routes.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "ShortKey",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(deps.Logger),
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerMiddleware() {
	s.app.Use(
		middleware.RequestID(),
		middleware.Logger(s.deps.Logger.Named("http")),
		middleware.Recovery(s.deps.Logger),
		middleware.Metrics(),
		middleware.CORS(),
	)
}

func (s *Server) registerRoutes() {
	urls := inthttp.NewLinkURLs(s.deps.BaseURL)

	inthttp.NewAPIHandler(inthttp.APIDeps{
		Logger:      s.deps.Logger,
		LinkService: s.deps.Links,
		URLs:        urls,
	}).Register(s.app)

	inthttp.NewAdminHandler(inthttp.AdminDeps{
		Logger:      s.deps.Logger,
		LinkService: s.deps.Links,
		URLs:        urls,
	}).Register(s.app)

	// Last: owns the /:key catch-all.
	inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger:      s.deps.Logger,
		LinkService: s.deps.Links,
		Database:    s.deps.Database,
	}).Register(s.app)
}

// errorHandler renders errors that escape handlers (unknown routes, wrong
// methods) in the same {"detail": ...} shape as the API.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		} else {
			logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}

		return c.Status(code).JSON(fiber.Map{"detail": message})
	}
}
