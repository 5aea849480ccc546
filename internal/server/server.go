// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/inventory-catalog/internal/config"
	"github.com/vyrodovalexey/inventory-catalog/internal/handler"
	"github.com/vyrodovalexey/inventory-catalog/internal/middleware"
	"github.com/vyrodovalexey/inventory-catalog/internal/store"
	"github.com/vyrodovalexey/inventory-catalog/internal/telemetry"
)

// ServiceName identifies the service in traces.
const ServiceName = "inventory-catalog"

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	handler    http.Handler
	config     *config.Config
	logger     *zap.Logger
	registry   *prometheus.Registry
	wsHandler  *handler.WebSocketHandler
	cors       middleware.Middleware
}

// New creates a new Server instance. HTTP metrics are registered with reg and
// served from /metrics when metrics are enabled.
func New(cfg *config.Config, logger *zap.Logger, itemStore store.Store, reg *prometheus.Registry) (*Server, error) {
	router := mux.NewRouter()

	s := &Server{
		router:   router,
		config:   cfg,
		logger:   logger,
		registry: reg,
	}

	if err := s.setupMiddleware(); err != nil {
		return nil, err
	}
	s.setupRoutes(itemStore)
	s.setupHTTPServer()

	return s, nil
}

// setupMiddleware configures the middleware chain.
func (s *Server) setupMiddleware() error {
	allowedOrigins := []string{"*"}
	allowedMethods := []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodOptions,
	}
	allowedHeaders := []string{
		"Content-Type",
		middleware.RequestIDHeader,
	}

	// First applied = outermost.
	s.router.Use(mux.MiddlewareFunc(middleware.Recovery(s.logger)))
	s.router.Use(mux.MiddlewareFunc(middleware.RequestID()))

	if s.config.TracingEnabled() {
		s.router.Use(telemetry.RouteAttribute)
	}

	if s.config.MetricsEnabled {
		metrics, err := middleware.NewHTTPMetrics(s.registry)
		if err != nil {
			return err
		}
		s.router.Use(mux.MiddlewareFunc(metrics.Middleware()))
	}

	s.router.Use(mux.MiddlewareFunc(middleware.Logging(s.logger)))

	// mux runs Use middleware only on a full route match, so an OPTIONS
	// preflight would stop at 405. CORS wraps the whole router instead.
	s.cors = middleware.CORS(allowedOrigins, allowedMethods, allowedHeaders)

	return nil
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes(itemStore store.Store) {
	// Item change feed; also receives every successful mutation.
	s.wsHandler = handler.NewWebSocketHandler(s.logger)
	s.wsHandler.RegisterRoutes(s.router)

	restHandler := handler.NewRESTHandler(itemStore, s.logger, s.wsHandler)
	restHandler.RegisterRoutes(s.router)

	if s.config.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
			Registry: s.registry,
		})).Methods(http.MethodGet)
	}

	s.handler = s.cors(s.router)
	if s.config.TracingEnabled() {
		s.handler = otelhttp.NewHandler(s.handler, ServiceName)
	}
}

// setupHTTPServer configures the HTTP server.
func (s *Server) setupHTTPServer() {
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		zap.String("address", s.config.Address()),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
		zap.Bool("tracing_enabled", s.config.TracingEnabled()),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	// Hijacked connections are not tracked by http.Server.Shutdown.
	if s.wsHandler != nil {
		s.wsHandler.CloseAllConnections()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Router returns the server's router for testing purposes.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler returns the root handler: the router behind CORS, and behind
// otelhttp when tracing is enabled.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Events returns the item event feed.
func (s *Server) Events() *handler.WebSocketHandler {
	return s.wsHandler
}
