// Package heartbeat posts a periodic liveness ping for the current subject,
// independent of everything else the agent does.
package heartbeat

import (
	"context"
	"time"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/service"
)

// VisitTracker delivers a liveness ping.
type VisitTracker interface {
	TrackVisit(ctx context.Context, subjectID string) error
}

// SubjectSource resolves the subject to report for.
type SubjectSource interface {
	Subject(ctx context.Context) (string, error)
}

// Config contains heartbeat configuration.
type Config struct {
	Interval time.Duration
}

// Reporter sends the periodic liveness ping.
type Reporter struct {
	*service.ServiceBase
	tracker  VisitTracker
	identity SubjectSource
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a heartbeat reporter.
func New(tracker VisitTracker, identity SubjectSource, cfg Config, log *logger.Logger) *Reporter {
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Reporter{
		ServiceBase: service.NewServiceBase("heartbeat", log),
		tracker:     tracker,
		identity:    identity,
		interval:    cfg.Interval,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the heartbeat loop.
func (r *Reporter) Start(ctx context.Context) error {
	r.GetStatus().SetStatus(service.StatusRunning)
	go r.loop(ctx)
	r.LogInfo("Heartbeat started", "interval", r.interval)
	return nil
}

// Stop stops the heartbeat loop.
func (r *Reporter) Stop(ctx context.Context) error {
	r.cancel()
	r.GetStatus().SetStatus(service.StatusStopped)
	r.LogInfo("Heartbeat stopped")
	return nil
}

func (r *Reporter) loop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Immediate first beat, then the interval.
	r.Beat(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.Beat(ctx)
		}
	}
}

// Beat sends one liveness ping. Failures are logged and ignored; the next
// natural tick is the only retry.
func (r *Reporter) Beat(ctx context.Context) {
	subject, err := r.identity.Subject(ctx)
	if err != nil || subject == "" {
		r.LogWarn("No subject for heartbeat", "error", err)
		return
	}
	if err := r.tracker.TrackVisit(ctx, subject); err != nil {
		r.LogWarn("Heartbeat delivery failed", "error", err)
	}
}
