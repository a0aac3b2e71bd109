package repository

import (
	"sync"
	"time"

	"cantina/internal/model"
)

// Kind names a persisted collection for change notification.
type Kind string

const (
	KindStudent     Kind = "student"
	KindProduct     Kind = "product"
	KindTransaction Kind = "transaction"
	KindInvoice     Kind = "invoice"
	KindSettings    Kind = "settings"

	// KindAny subscribes to every collection.
	KindAny Kind = "*"
)

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// ChangeEvent is delivered to subscribers after the write that produced it
// has been committed. School is empty for settings and for invoices that
// span both schools.
type ChangeEvent struct {
	Kind   Kind         `json:"kind"`
	Op     Op           `json:"op"`
	ID     string       `json:"id"`
	School model.School `json:"school,omitempty"`
	At     time.Time    `json:"at"`

	// Remote marks events received from another replica through the bridge.
	Remote bool `json:"-"`
}

// Listener receives change events. It runs on the committing goroutine and
// must not block.
type Listener func(ChangeEvent)

type subscription struct {
	kind Kind
	fn   Listener
}

// changeBus fans events out to in-process listeners.
type changeBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
}

func newChangeBus() *changeBus {
	return &changeBus{subs: make(map[int]subscription)}
}

func (b *changeBus) subscribe(kind Kind, fn Listener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = subscription{kind: kind, fn: fn}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *changeBus) publish(events ...ChangeEvent) {
	if len(events) == 0 {
		return
	}
	b.mu.RLock()
	subs := make([]subscription, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	for _, ev := range events {
		for _, s := range subs {
			if s.kind == KindAny || s.kind == ev.Kind {
				s.fn(ev)
			}
		}
	}
}
