package tick

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by Subscription.Next after the subscription or its
// bus has been closed and every queued marker was consumed.
var ErrClosed = errors.New("tick: subscription closed")

// Bus broadcasts tick markers to every current subscriber.
type Bus struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewBus creates a bus with no subscribers.
func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Publish delivers marker to every subscriber. It never blocks and never
// fails; publishing on a closed bus drops the marker.
func (b *Bus) Publish(marker time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for sub := range b.subs {
		sub.enqueue(marker)
	}
}

// Subscribe returns a subscription that receives every marker published
// from now on.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{
		bus:     b,
		markers: make([]time.Time, 0, 8),
		signal:  make(chan struct{}, 1),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		sub.close()
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

// Close detaches and closes every subscription. Queued markers remain
// readable.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		sub.close()
	}
	b.subs = nil
}

// Subscribers returns the number of attached subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, sub)
}

// Subscription is one subscriber's queue. It must be read from a single
// goroutine; markers come out in publish order.
type Subscription struct {
	bus *Bus

	mu      sync.Mutex
	markers []time.Time
	closed  bool
	signal  chan struct{} // buffered, size 1; closed on close
}

func (s *Subscription) enqueue(marker time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.markers = append(s.markers, marker)

	// Buffer of 1 coalesces multiple signals
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// TryNext returns the next queued marker without blocking.
func (s *Subscription) TryNext() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.markers) == 0 {
		return time.Time{}, false
	}
	m := s.markers[0]
	if len(s.markers) == 1 {
		s.markers = s.markers[:0]
	} else {
		s.markers = s.markers[1:]
	}
	return m, true
}

// Next blocks until a marker is available, ctx is done, or the
// subscription is closed and drained.
func (s *Subscription) Next(ctx context.Context) (time.Time, error) {
	for {
		if m, ok := s.TryNext(); ok {
			return m, nil
		}

		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return time.Time{}, ErrClosed
		}

		select {
		case <-ctx.Done():
			return time.Time{}, ctx.Err()
		case <-s.signal:
		}
	}
}

// Len returns the number of queued markers.
func (s *Subscription) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.markers)
}

// Close detaches the subscription from its bus. Markers already queued can
// still be read; Next returns ErrClosed once they are drained.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s)
	s.close()
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.signal) // wakes any waiter
}
