// Package web serves the local control API: health, status, the direct
// capture trigger and the notification feed view.
package web

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/capture"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/service"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/state"
)

// CaptureEngine is the capture surface the API exposes.
type CaptureEngine interface {
	TryCapture(ctx context.Context, trig capture.Trigger) (*capture.Report, error)
	SessionActive() bool
}

// MessageFeed is the notification feed surface the API exposes.
type MessageFeed interface {
	Current(ctx context.Context) ([]state.Message, error)
	Dismiss(ctx context.Context, id string)
}

// SubjectSource resolves the ambient subject for status reporting.
type SubjectSource interface {
	Subject(ctx context.Context) (string, error)
}

// StatusSource reports service statuses.
type StatusSource interface {
	AllStatuses() map[string]*service.ServiceStatus
}

// ServerConfig contains web server configuration.
type ServerConfig struct {
	Host string
	Port int
}

// Server is the local control API service.
type Server struct {
	*service.ServiceBase
	config     ServerConfig
	logger     *logger.Logger
	engine     CaptureEngine
	feed       MessageFeed
	identity   SubjectSource
	statuses   StatusSource
	db         *sql.DB
	httpServer *http.Server
	router     *gin.Engine
	startTime  time.Time
}

// NewServer creates the control API server.
func NewServer(cfg ServerConfig, engine CaptureEngine, feed MessageFeed, identity SubjectSource, statuses StatusSource, db *sql.DB, log *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		ServiceBase: service.NewServiceBase("control-api", log),
		config:      cfg,
		logger:      log,
		engine:      engine,
		feed:        feed,
		identity:    identity,
		statuses:    statuses,
		db:          db,
		startTime:   time.Now(),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.POST("/capture", s.handleCapture)
		api.GET("/messages", s.handleMessages)
		api.DELETE("/messages/:id", s.handleDismissMessage)
	}

	return router
}

// Router returns the underlying router, for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the HTTP listener.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.LogError("Control API listener failed", err, "addr", addr)
			s.GetStatus().SetError(err)
		}
	}()

	s.GetStatus().SetStatus(service.StatusRunning)
	s.LogInfo("Control API started", "addr", addr)
	return nil
}

// Stop shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("control API shutdown: %w", err)
		}
	}
	s.GetStatus().SetStatus(service.StatusStopped)
	s.LogInfo("Control API stopped")
	return nil
}
