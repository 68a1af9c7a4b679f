package messages

import (
	"context"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/state"
)

// StaticView is a read-only feed view over the state store, used when the
// refresh service is disabled but the control API still wants to show the
// cached feed.
type StaticView struct {
	state *state.Manager
}

// NewStaticView creates a view over the given state store.
func NewStaticView(st *state.Manager) *StaticView {
	return &StaticView{state: st}
}

// Current returns the cached, undismissed messages.
func (v *StaticView) Current(ctx context.Context) ([]state.Message, error) {
	cached, err := v.state.CachedMessages(ctx)
	if err != nil {
		return nil, err
	}
	dismissed, err := v.state.DismissedIDs(ctx)
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

// Dismiss records a local dismissal only; there is no refresh service to
// acknowledge it remotely.
func (v *StaticView) Dismiss(ctx context.Context, id string) {
	_ = v.state.MarkDismissed(ctx, id)
}
