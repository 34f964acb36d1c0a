// Package eventbus implements the per-job broadcast channel described in
// §4.3: single producer (the owning orchestrator goroutine), many
// consumers (SSE subscribers), a bounded backlog per subscriber, and a
// dedicated terminal slot so the final event is never lost to backlog
// overflow (§9).
package eventbus

import (
	"sync"

	"github.com/ternarybob/reviewsvc/internal/model"
)

// DefaultCapacity is the default bounded backlog size per subscriber (§4.3).
const DefaultCapacity = 256

// Bus is a single-producer, multi-consumer broadcast channel for one job's
// events. The zero value is not usable; construct with New.
type Bus struct {
	mu       sync.Mutex
	capacity int
	subs     map[int]*subscriber
	nextID   int
	terminal *model.Event
}

type subscriber struct {
	events chan model.Event
	done   chan model.Event
	lagged bool
}

// New creates a Bus with the given per-subscriber backlog capacity. A
// capacity <= 0 uses DefaultCapacity.
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{
		capacity: capacity,
		subs:     make(map[int]*subscriber),
	}
}

// Publish delivers event to every current subscriber. It never blocks: a
// subscriber whose ring is full loses the event and is marked lagged; the
// next terminal event delivered to it is preceded by a best-effort
// EventLagged marker. The terminal event itself always reaches every
// subscriber, since it is written to a dedicated one-shot channel outside
// the ring rather than competing for ring space.
//
// Publish is a no-op once a terminal event has already been published -
// callers own the invariant that exactly one terminal event is ever sent.
func (b *Bus) Publish(event model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.terminal != nil {
		return
	}

	terminal := event.Type.IsTerminal()
	for _, s := range b.subs {
		if terminal {
			deliverTerminal(s, event)
		} else {
			deliverRegular(s, event)
		}
	}

	if terminal {
		ev := event
		b.terminal = &ev
		for _, s := range b.subs {
			close(s.events)
		}
	}
}

func deliverRegular(s *subscriber, event model.Event) {
	select {
	case s.events <- event:
		return
	default:
	}

	// Ring full: drop the oldest queued event to make room, mark lagged.
	select {
	case <-s.events:
	default:
	}
	select {
	case s.events <- event:
	default:
	}
	s.lagged = true
}

func deliverTerminal(s *subscriber, event model.Event) {
	if s.lagged {
		lagEvent := model.Event{Type: model.EventLagged, JobID: event.JobID, TimestampMS: event.TimestampMS}
		select {
		case s.events <- lagEvent:
		default:
		}
	}
	// s.done is fresh and capacity 1: this send can never block or be lost.
	s.done <- event
}

// Subscribe registers a new listener and returns a channel of events in
// publication order. The channel closes after delivering the terminal
// event. A subscriber joining after the job already completed receives
// only that terminal event and an immediately-closed channel.
func (b *Bus) Subscribe() <-chan model.Event {
	b.mu.Lock()
	if b.terminal != nil {
		term := *b.terminal
		b.mu.Unlock()
		out := make(chan model.Event, 1)
		out <- term
		close(out)
		return out
	}

	id := b.nextID
	b.nextID++
	s := &subscriber{
		events: make(chan model.Event, b.capacity),
		done:   make(chan model.Event, 1),
	}
	b.subs[id] = s
	b.mu.Unlock()

	out := make(chan model.Event, b.capacity+1)
	go func() {
		defer close(out)
		for e := range s.events {
			out <- e
		}
		select {
		case e := <-s.done:
			out <- e
		default:
		}

		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}()
	return out
}

// SubscriberCount reports the number of currently-registered subscribers,
// for tests and diagnostics.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
