package testhelpers

import (
	"context"
	"sync"

	"github.com/lokroom/settlement/internal/application"
)

// FakeLocker always grants the lock. Service tests exercise locking
// behavior through the redis integration tests instead.
type FakeLocker struct{}

func (FakeLocker) Acquire(ctx context.Context, bookingID string) (func(context.Context), error) {
	return func(context.Context) {}, nil
}

// RecordingNotifier collects published events for assertions.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []application.SettlementEvent
}

func (n *RecordingNotifier) Publish(ctx context.Context, event application.SettlementEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *RecordingNotifier) Events() []application.SettlementEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]application.SettlementEvent, len(n.events))
	copy(out, n.events)
	return out
}

func (n *RecordingNotifier) EventsOfType(eventType string) []application.SettlementEvent {
	var out []application.SettlementEvent
	for _, e := range n.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
