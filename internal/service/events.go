package service

import (
	"sync"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

// busQueueSize bounds each subscriber's backlog. A subscriber that falls
// this far behind sheds events rather than blocking publishers.
const busQueueSize = 64

// Bus fans identity-change events out to subscribers. Each subscriber
// sees events in emission order; Publish never blocks.
type Bus struct {
	mu     sync.Mutex
	subs   map[uint64]chan domainauth.Event
	nextID uint64
	closed bool
}

var (
	_ ports.EventSource = (*Bus)(nil)
	_ ports.EventSink   = (*Bus)(nil)
)

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]chan domainauth.Event)}
}

// Subscribe registers a new subscriber and returns its receive channel
// plus a cancel function. The channel is closed after cancel, or when the
// Bus closes. Subscribing to a closed Bus yields an already-closed channel.
func (b *Bus) Subscribe() (<-chan domainauth.Event, func()) {
	ch := make(chan domainauth.Event, busQueueSize)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every current subscriber. Delivery order
// per subscriber matches publish order; a full subscriber queue drops the
// event for that subscriber only. Publishing to a closed Bus is a no-op.
func (b *Bus) Publish(evt domainauth.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Close closes every subscriber channel and rejects further publishes.
// Safe to call more than once.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
