package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/capture"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/device"
)

func (s *Server) handleHealth(c *gin.Context) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "state database unreachable",
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	subject, _ := s.identity.Subject(c.Request.Context())

	services := gin.H{}
	if s.statuses != nil {
		for name, status := range s.statuses.AllStatuses() {
			services[name] = gin.H{
				"status": status.GetStatus(),
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"subject":        subject,
		"session_active": s.engine.SessionActive(),
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"services":       services,
	})
}

type captureRequest struct {
	Camera string `json:"camera"`
}

// handleCapture is the direct UI trigger: it starts a user-sourced session.
// The session runs in the background; the handler only reports acceptance.
func (s *Server) handleCapture(c *gin.Context) {
	var req captureRequest
	// An empty body means front camera.
	_ = c.ShouldBindJSON(&req)

	if s.engine.SessionActive() {
		c.JSON(http.StatusConflict, gin.H{"error": "capture session already active"})
		return
	}

	trig := capture.Trigger{
		Source:      capture.TriggerUser,
		Orientation: device.OrientationFromDirective(req.Camera),
	}

	go func() {
		if _, err := s.engine.TryCapture(context.Background(), trig); err != nil {
			// The guard absorbed a concurrent start; nothing else to report.
			s.LogDebug("Capture request dropped", "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"started":     true,
		"orientation": trig.Orientation,
	})
}

func (s *Server) handleMessages(c *gin.Context) {
	msgs, err := s.feed.Current(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read messages"})
		return
	}

	out := make([]gin.H, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, gin.H{
			"id":    msg.ID,
			"title": msg.Title,
			"body":  msg.Body,
		})
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

func (s *Server) handleDismissMessage(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message id required"})
		return
	}
	s.feed.Dismiss(c.Request.Context(), id)
	c.JSON(http.StatusOK, gin.H{"dismissed": id})
}
