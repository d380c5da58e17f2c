package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/good-yellow-bee/alertrelay/internal/answer"
	"github.com/good-yellow-bee/alertrelay/internal/api/health"
	"github.com/good-yellow-bee/alertrelay/internal/notifier"
	"github.com/good-yellow-bee/alertrelay/internal/store"
)

// Config contains HTTP API server configuration.
type Config struct {
	Address          string
	RateLimitPerIP   int  // requests per second on /alert (0 = disabled)
	DefaultSinceDays int  // query window when a command has no since: filter
	Verbose          bool // log all requests, not only errors
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.DefaultSinceDays == 0 {
		c.DefaultSinceDays = 7
	}
}

// Server is the HTTP API server.
type Server struct {
	config        *Config
	store         store.Store
	mirror        store.Mirror
	dispatcher    *notifier.Dispatcher
	generator     answer.Generator
	server        *http.Server
	healthHandler *health.Handler
}

// New creates a new API server. mirror and dispatcher may be nil when
// the corresponding collaborator is not configured.
func New(cfg *Config, s store.Store, mirror store.Mirror, dispatcher *notifier.Dispatcher, generator answer.Generator) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if s == nil {
		return nil, fmt.Errorf("store is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("answer generator is required")
	}

	cfg.SetDefaults()

	srv := &Server{
		config:        cfg,
		store:         s,
		mirror:        mirror,
		dispatcher:    dispatcher,
		generator:     generator,
		healthHandler: health.NewHandler(),
	}

	router := srv.setupRouter()

	srv.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return srv, nil
}

// RegisterHealthChecker adds a health checker to the server.
func (s *Server) RegisterHealthChecker(c health.Checker) {
	if s.healthHandler != nil {
		s.healthHandler.RegisterChecker(c)
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		log.Printf("HTTP API listening on %s", s.config.Address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutting down HTTP API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}
