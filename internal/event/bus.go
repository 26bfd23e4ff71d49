package event

import (
	"context"
	"log/slog"
	"sync"
)

// defaultBufferSize bounds each subscriber's backlog before it is
// considered lagging.
const defaultBufferSize = 256

// Bus is a single broadcast topic; subscribers hold lightweight receive
// handles. Publish never blocks: a subscriber that cannot keep up loses
// events and is told so via a Lagged marker rather than stalling publishers.
type Bus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   map[uint64]*subscriber
	nextID uint64
	closed bool
}

// New creates an empty Bus.
func New(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{
		logger: log.With(slog.String("component", "event_bus")),
		subs:   map[uint64]*subscriber{},
	}
}

type subscriber struct {
	id uint64
	ch chan Event

	mu         sync.Mutex
	pendingLag int
}

// Receiver is the lightweight handle returned by Subscribe. Only the
// subscriber goroutine that created it should call Receive/Close.
type Receiver struct {
	bus *Bus
	sub *subscriber
}

// Subscribe opts in to the event stream. Events emitted before Subscribe
// returns are never delivered to this receiver.
func (b *Bus) Subscribe() *Receiver {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &subscriber{id: b.nextID, ch: make(chan Event, defaultBufferSize)}
	b.subs[sub.id] = sub
	return &Receiver{bus: b, sub: sub}
}

// Receive blocks until an event arrives, ctx is cancelled, or the bus is
// closed (in which case ok is false).
func (r *Receiver) Receive(ctx context.Context) (Event, bool) {
	select {
	case e, ok := <-r.sub.ch:
		return e, ok
	case <-ctx.Done():
		return nil, false
	}
}

// Events exposes the raw channel for range-based consumption.
func (r *Receiver) Events() <-chan Event {
	return r.sub.ch
}

// Close unsubscribes the receiver. Safe to call more than once.
func (r *Receiver) Close() {
	r.bus.mu.Lock()
	defer r.bus.mu.Unlock()
	if _, ok := r.bus.subs[r.sub.id]; !ok {
		return
	}
	delete(r.bus.subs, r.sub.id)
	close(r.sub.ch)
}

// Publish fans e out to every live subscriber without blocking. A
// subscriber whose buffer is full has the event dropped and a pending lag
// counter incremented; the counter is flushed as a Lagged event the next
// time that subscriber has room.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		sub.send(e, b.logger)
	}
}

func (s *subscriber) send(e Event, logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingLag > 0 {
		select {
		case s.ch <- Lagged{Dropped: s.pendingLag}:
			s.pendingLag = 0
		default:
			s.pendingLag++
			return
		}
	}

	select {
	case s.ch <- e:
	default:
		s.pendingLag++
		if logger != nil {
			logger.Warn("subscriber lagging, event dropped", slog.Uint64("subscriber_id", s.id))
		}
	}
}

// Close shuts the bus down: every live subscriber's channel is closed,
// waking any blocked Receive calls. Called as the last step of controller
// shutdown, after all channels and the scheduler have drained.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}
