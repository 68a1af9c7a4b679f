// Package messages implements the notification feed: periodic fetch from the
// collector, local caching, delivery to a sink, and dismissal. The feed is
// fully independent of the capture pipeline and never blocks it.
package messages

import (
	"context"
	"sync"
	"time"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/collector"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/service"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/state"
)

// FeedClient fetches and acknowledges messages at the collector.
type FeedClient interface {
	FetchMessages(ctx context.Context, anonID, token string) ([]collector.Message, error)
	DeleteMessage(ctx context.Context, id string) error
}

// IdentitySource supplies the feed identity and credential.
type IdentitySource interface {
	AnonymousID(ctx context.Context) (string, error)
	Token(ctx context.Context) string
}

// Sink receives messages as they are delivered.
type Sink func(msg state.Message)

// Config contains feed configuration.
type Config struct {
	Interval time.Duration
	// DisplayTTL is how long a delivered message stays before it is
	// auto-dismissed.
	DisplayTTL time.Duration
}

// Feed periodically refreshes the notification feed.
type Feed struct {
	*service.ServiceBase
	client   FeedClient
	state    *state.Manager
	identity IdentitySource
	config   Config
	sink     Sink

	mu        sync.Mutex
	delivered map[string]bool
	timers    []*time.Timer

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a notification feed. sink may be nil, in which case delivered
// messages are only logged.
func New(client FeedClient, st *state.Manager, identity IdentitySource, cfg Config, sink Sink, log *logger.Logger) *Feed {
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.DisplayTTL == 0 {
		cfg.DisplayTTL = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Feed{
		ServiceBase: service.NewServiceBase("message-feed", log),
		client:      client,
		state:       st,
		identity:    identity,
		config:      cfg,
		sink:        sink,
		delivered:   make(map[string]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins the refresh loop. Cached messages are delivered immediately,
// before the first fetch completes.
func (f *Feed) Start(ctx context.Context) error {
	f.GetStatus().SetStatus(service.StatusRunning)
	go f.loop(ctx)
	f.LogInfo("Message feed started", "interval", f.config.Interval)
	return nil
}

// Stop stops the refresh loop and any pending auto-dismiss timers.
func (f *Feed) Stop(ctx context.Context) error {
	f.cancel()
	f.mu.Lock()
	for _, timer := range f.timers {
		timer.Stop()
	}
	f.timers = nil
	f.mu.Unlock()
	f.GetStatus().SetStatus(service.StatusStopped)
	f.LogInfo("Message feed stopped")
	return nil
}

func (f *Feed) loop(ctx context.Context) {
	// Show cached messages instantly, then refresh in the background.
	f.deliverCached(ctx)
	f.Refresh(ctx)

	ticker := time.NewTicker(f.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.ctx.Done():
			return
		case <-ticker.C:
			f.Refresh(ctx)
		}
	}
}

// Refresh fetches the feed once; on success it replaces the cache and
// delivers undismissed messages. Fetch failures keep the cache as is.
func (f *Feed) Refresh(ctx context.Context) {
	anonID, err := f.identity.AnonymousID(ctx)
	if err != nil {
		f.LogWarn("No feed identity", "error", err)
		return
	}

	fetched, err := f.client.FetchMessages(ctx, anonID, f.identity.Token(ctx))
	if err != nil {
		f.LogWarn("Message fetch failed", "error", err)
		return
	}

	cached := make([]state.Message, 0, len(fetched))
	for _, msg := range fetched {
		cached = append(cached, state.Message{ID: msg.ID, Title: msg.Title, Body: msg.Body})
	}
	if err := f.state.ReplaceMessages(ctx, cached); err != nil {
		f.LogWarn("Failed to cache messages", "error", err)
	}

	f.deliver(ctx, cached)
}

func (f *Feed) deliverCached(ctx context.Context) {
	cached, err := f.state.CachedMessages(ctx)
	if err != nil {
		f.LogWarn("Failed to read message cache", "error", err)
		return
	}
	f.deliver(ctx, cached)
}

func (f *Feed) deliver(ctx context.Context, msgs []state.Message) {
	dismissed, err := f.state.DismissedIDs(ctx)
	if err != nil {
		f.LogWarn("Failed to read dismissed set", "error", err)
		dismissed = map[string]bool{}
	}

	for _, msg := range msgs {
		if dismissed[msg.ID] {
			continue
		}

		f.mu.Lock()
		if f.delivered[msg.ID] {
			f.mu.Unlock()
			continue
		}
		f.delivered[msg.ID] = true
		f.mu.Unlock()

		f.LogInfo("Message delivered", "id", msg.ID, "title", msg.Title)
		if f.sink != nil {
			f.sink(msg)
		}

		// Messages auto-dismiss after the display TTL.
		id := msg.ID
		timer := time.AfterFunc(f.config.DisplayTTL, func() {
			f.Dismiss(context.Background(), id)
		})
		f.mu.Lock()
		f.timers = append(f.timers, timer)
		f.mu.Unlock()
	}
}

// Dismiss acknowledges a message locally and, best effort, at the collector.
func (f *Feed) Dismiss(ctx context.Context, id string) {
	if err := f.state.MarkDismissed(ctx, id); err != nil {
		f.LogWarn("Failed to record dismissal", "id", id, "error", err)
	}
	if err := f.client.DeleteMessage(ctx, id); err != nil {
		f.LogWarn("Failed to acknowledge message", "id", id, "error", err)
	}
}

// Current returns the cached, undismissed messages.
func (f *Feed) Current(ctx context.Context) ([]state.Message, error) {
	cached, err := f.state.CachedMessages(ctx)
	if err != nil {
		return nil, err
	}
	dismissed, err := f.state.DismissedIDs(ctx)
	if err != nil {
		return nil, err
	}

	current := make([]state.Message, 0, len(cached))
	for _, msg := range cached {
		if !dismissed[msg.ID] {
			current = append(current, msg)
		}
	}
	return current, nil
}
