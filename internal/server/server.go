package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/config"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/handler"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/middleware"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/transport/httpdto"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Offload *handler.OffloadHandler
	Rewrite *handler.RewriteHandler
}

// HealthCheck reports readiness of a backing dependency.
type HealthCheck func(ctx context.Context) error

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.Server.Mode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.Server.Mode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, health HealthCheck) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if health != nil {
			if err := health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
				return
			}
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	auth := middleware.AuthMiddleware(s.config.Auth.JWTSecret)

	offload := s.engine.Group("/api/v1/offload", auth)
	{
		offload.GET("/status", handlers.Offload.Status)
		offload.POST("/test", handlers.Offload.TestConnection)
		offload.GET("/remote", handlers.Offload.RemoteObjects)
		offload.POST("/sync", handlers.Offload.StartSync)
		offload.GET("/sync/:token", handlers.Offload.Progress)
		offload.POST("/sync/:token/batch", handlers.Offload.ProcessBatch)
		offload.POST("/attachments", handlers.Offload.RegisterAttachment)
		offload.DELETE("/attachments/:id", handlers.Offload.DeleteAttachment)
	}

	rewrite := s.engine.Group("/api/v1", auth)
	{
		rewrite.POST("/rewrite", handlers.Rewrite.Rewrite)
		rewrite.GET("/asset", handlers.Rewrite.Asset)
	}
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.Server.Port)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
