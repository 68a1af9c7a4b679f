// Package poller implements the remote trigger poller: a fixed-interval
// check against the collector that starts an admin-triggered capture session
// when one has been requested for this subject.
package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/capture"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/collector"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/device"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/service"
)

// FlagSource polls the collector for a pending capture request.
type FlagSource interface {
	PollCaptureFlag(ctx context.Context, subjectID string) (collector.CaptureFlag, error)
}

// CaptureInvoker starts a capture session.
type CaptureInvoker interface {
	TryCapture(ctx context.Context, trig capture.Trigger) (*capture.Report, error)
}

// SubjectSource resolves the subject to poll for.
type SubjectSource interface {
	Subject(ctx context.Context) (string, error)
}

// Config contains poller configuration.
type Config struct {
	Interval time.Duration
}

// Poller periodically checks for a remotely requested capture.
type Poller struct {
	*service.ServiceBase
	flags    FlagSource
	engine   CaptureInvoker
	identity SubjectSource
	interval time.Duration

	// checking is the idle/checking state: a tick that lands while a check
	// is still in flight is skipped.
	checking atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a trigger poller.
func New(flags FlagSource, engine CaptureInvoker, identity SubjectSource, cfg Config, log *logger.Logger) *Poller {
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		ServiceBase: service.NewServiceBase("trigger-poller", log),
		flags:       flags,
		engine:      engine,
		identity:    identity,
		interval:    cfg.Interval,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the poll loop.
func (p *Poller) Start(ctx context.Context) error {
	p.GetStatus().SetStatus(service.StatusRunning)
	go p.loop(ctx)
	p.LogInfo("Trigger poller started", "interval", p.interval)
	return nil
}

// Stop stops the poll loop.
func (p *Poller) Stop(ctx context.Context) error {
	p.cancel()
	p.GetStatus().SetStatus(service.StatusStopped)
	p.LogInfo("Trigger poller stopped")
	return nil
}

func (p *Poller) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick transitions idle -> checking, runs one check and transitions back.
// A capture started from a check keeps the poller in checking until the
// session settles, so ticks never pile up behind a running session.
func (p *Poller) tick(ctx context.Context) {
	if !p.checking.CompareAndSwap(false, true) {
		p.LogDebug("Poll tick skipped, check in flight")
		return
	}
	go func() {
		defer p.checking.Store(false)
		p.check(ctx)
	}()
}

// Check runs a single poll cycle. Exported for the control API's benefit.
func (p *Poller) Check(ctx context.Context) {
	p.check(ctx)
}

func (p *Poller) check(ctx context.Context) {
	subject, err := p.identity.Subject(ctx)
	if err != nil || subject == "" {
		p.LogWarn("No subject to poll for", "error", err)
		return
	}

	flag, err := p.flags.PollCaptureFlag(ctx, subject)
	if err != nil {
		// Skip this tick, try again on the next interval.
		p.LogWarn("Trigger poll failed", "error", err)
		return
	}
	if !flag.Trigger {
		return
	}

	orientation := device.OrientationFromDirective(flag.Camera)
	p.LogInfo("Remote capture trigger received",
		"subject", subject,
		"camera", flag.Camera,
		"orientation", orientation,
	)

	_, err = p.engine.TryCapture(ctx, capture.Trigger{
		Source:        capture.TriggerAdmin,
		Orientation:   orientation,
		ForcedSubject: subject,
	})
	if errors.Is(err, capture.ErrSessionActive) {
		// Absorbed by the guard; nothing to do.
		p.LogDebug("Capture already active, trigger dropped")
	}
}
