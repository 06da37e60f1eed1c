package http

import (
	"context"
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/serialport/pkg/domain/interfaces"
	"github.com/m-mizutani/serialport/pkg/domain/model"
)

// config holds internal HTTP server configuration
type config struct {
	addr        string
	settings    model.Settings
	maxBodySize int64
	sentry      bool
	apiSecret   string
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithSettings sets the port settings used when a request does not override them
func WithSettings(settings model.Settings) Option {
	return func(c *config) {
		c.settings = settings
	}
}

// WithMaxBodySize limits the payload accepted by the write endpoint
func WithMaxBodySize(size int64) Option {
	return func(c *config) {
		c.maxBodySize = size
	}
}

// WithSentry attaches a Sentry hub to each request. sentry.Init must be
// called beforehand.
func WithSentry(enabled bool) Option {
	return func(c *config) {
		c.sentry = enabled
	}
}

// WithAPISecret requires /api requests to be signed with secret
func WithAPISecret(secret string) Option {
	return func(c *config) {
		c.apiSecret = secret
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	portUC interfaces.PortUseCase,
	opts ...Option,
) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr:        "localhost:8080",
		settings:    model.DefaultSettings(),
		maxBodySize: 1 << 20,
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	if cfg.sentry {
		router.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}
	router.Use(middleware.Recoverer)

	// Health check
	router.Get("/health", handleHealth)

	// Serial port API
	portHandler := NewPortHandler(portUC, cfg.settings, cfg.maxBodySize)
	router.Route("/api", func(r chi.Router) {
		if cfg.apiSecret != "" {
			r.Use(SignatureMiddleware(cfg.apiSecret, cfg.maxBodySize))
		}
		r.Get("/ports", portHandler.ListPorts)
		r.Get("/baud-rates", portHandler.BaudRates)
		r.Get("/port", portHandler.Inspect)
		r.Post("/port/write", portHandler.Write)
		r.Post("/port/capture", portHandler.Capture)
	})

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
