// AngelaMos | 2026
// feed.go

package roster

import (
	"log/slog"
	"sync"

	"github.com/Dramos02/employee-directory/internal/employee"
)

const subscriberBuffer = 64

// Feed fans employee change events out to subscribers. Publish never
// blocks: an event for a subscriber that has fallen subscriberBuffer
// events behind is dropped and logged, so a stalled consumer can
// never stall the write path.
type Feed struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan employee.ChangeEvent
	logger *slog.Logger
}

func NewFeed(logger *slog.Logger) *Feed {
	return &Feed{
		subs:   make(map[int]chan employee.ChangeEvent),
		logger: logger,
	}
}

// Publish delivers the event to every subscriber in subscription
// order. Called synchronously from the employee service after each
// committed write, so per-subscriber delivery order matches commit
// order.
func (f *Feed) Publish(event employee.ChangeEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for id, ch := range f.subs {
		select {
		case ch <- event:
		default:
			f.logger.Warn("slow subscriber, dropping change event",
				"subscriber", id,
				"kind", event.Kind.String(),
			)
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel func must
// be called exactly once; afterwards the channel is closed.
func (f *Feed) Subscribe() (<-chan employee.ChangeEvent, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++

	ch := make(chan employee.ChangeEvent, subscriberBuffer)
	f.subs[id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

func (f *Feed) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
