package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dhima/dbhelper/internal/api/handlers"
	"github.com/dhima/dbhelper/internal/api/middleware"
	"github.com/dhima/dbhelper/internal/logging"
	"github.com/dhima/dbhelper/pkg/config"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server exposes one database session over HTTP.
type Server struct {
	config  config.App
	logger  logging.Logger
	router  *gin.Engine
	session *handlers.Session
}

// NewServer wires the routes around store. Every request goes through one
// session, so store is never driven concurrently.
func NewServer(cfg config.App, logger logging.Logger, store handlers.Store) *Server {
	switch cfg.Environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	server := &Server{
		config:  cfg,
		logger:  logger.With(zap.String("component", "api")),
		session: handlers.NewSession(store),
	}

	server.setupRouter()
	return server
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	router := gin.New()
	zapLogger := logging.Unwrap(s.logger)

	// Recovery first so it catches panics from the other middleware.
	router.Use(ginzap.RecoveryWithZap(zapLogger, true))
	router.Use(middleware.RequestID())
	router.Use(ginzap.Ginzap(zapLogger, time.RFC3339, true))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: !allowsAnyOrigin(s.config.CORSOrigins),
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", handlers.NewHealthHandler(s.logger, s.session).Health)
	router.GET("/metrics", handlers.NewMetricsHandler(s.logger, s.session).Metrics)

	v1 := router.Group("/api/v1")
	{
		tableHandler := handlers.NewTableHandler(s.logger, s.session)
		tables := v1.Group("/tables")
		{
			tables.GET("/:table", tableHandler.List)
			tables.POST("/:table", tableHandler.Create)
			tables.PUT("/:table", tableHandler.Update)
			tables.DELETE("/:table", tableHandler.Delete)
		}

		if s.config.RawQuery {
			v1.POST("/query", handlers.NewQueryHandler(s.logger, s.session).Run)
		}
	}

	s.router = router
}

// allowsAnyOrigin reports a wildcard origin list; cors rejects credentials with "*".
func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Serve starts the HTTP server and blocks until SIGINT or SIGTERM, then
// drains in-flight requests.
func (s *Server) Serve() error {
	addr := ":" + s.config.APIPort
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server",
			zap.String("address", addr),
			zap.String("environment", s.config.Environment),
			zap.Bool("raw_query", s.config.RawQuery),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		s.logger.Error("failed to start server", zap.Error(err))
		return err
	case <-quit:
	}
	s.logger.Info("shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	s.logger.Info("server stopped")
	return nil
}
