// Package registry implements the generic, TTL-swept job store described in
// §4.3: one in-memory table shared by review jobs and grade jobs, each
// entry paired with its own event bus and a cancel function the owner can
// call to stop an in-flight job. Entries are removed a configurable TTL
// after they reach a terminal status, mirroring the periodic-sweep pattern
// in the teacher's internal/services/processing/scheduler.go.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reviewsvc/internal/eventbus"
)

// Record is the constraint a job type must satisfy to live in a Registry.
// T is the concrete job type itself (ReviewJob, GradeJob), so Clone can
// return a fully-typed copy without the registry importing either type.
type Record[T any] interface {
	RecordID() string
	RecordStatus() string
	RecordCreatedAt() time.Time
	Clone() T
}

// Class buckets a job's status for Stats reporting.
type Class string

const (
	ClassActive    Class = "active"
	ClassCompleted Class = "completed"
	ClassFailed    Class = "failed"
)

// Stats is the point-in-time count of jobs by Class.
type Stats struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

type entry[T Record[T]] struct {
	mu          sync.RWMutex
	record      T
	bus         *eventbus.Bus
	cancel      context.CancelFunc
	terminal    bool
	completedAt time.Time
}

// Registry is a generic, concurrency-safe store of jobs of type T, each
// with its own event bus, keyed by RecordID. The zero value is not usable;
// construct with New.
type Registry[T Record[T]] struct {
	mu       sync.RWMutex
	entries  map[string]*entry[T]
	ttl      time.Duration
	classify func(status string) Class
	cron     *cron.Cron
	logger   arbor.ILogger
	name     string
}

// New constructs a Registry. ttl is how long a terminal job's entry is kept
// after completion before the sweep removes it. sweepIntervalSecs is not
// used by New; the sweep interval is the value passed to StartSweep.
// classify maps a job's RecordStatus() to a Class for Stats.
func New[T Record[T]](name string, ttl time.Duration, sweepIntervalSecs int, classify func(status string) Class, logger arbor.ILogger) *Registry[T] {
	return &Registry[T]{
		entries:  make(map[string]*entry[T]),
		ttl:      ttl,
		classify: classify,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
		name:     name,
	}
}

// StartSweep schedules the TTL sweep on the given interval and starts the
// cron scheduler. It is a no-op if intervalSecs <= 0.
func (r *Registry[T]) StartSweep(intervalSecs int) error {
	if intervalSecs <= 0 {
		return nil
	}
	schedule := fmt.Sprintf("@every %ds", intervalSecs)
	if _, err := r.cron.AddFunc(schedule, r.sweep); err != nil {
		return fmt.Errorf("registry %s: schedule sweep: %w", r.name, err)
	}
	r.cron.Start()
	if r.logger != nil {
		r.logger.Info().Str("registry", r.name).Str("schedule", schedule).Msg("job registry sweep started")
	}
	return nil
}

// Stop stops the sweep scheduler. It does not touch stored entries.
func (r *Registry[T]) Stop() {
	r.cron.Stop()
	if r.logger != nil {
		r.logger.Info().Str("registry", r.name).Msg("job registry sweep stopped")
	}
}

// Create registers a new job record with a fresh event bus and stores
// cancel so Cancel can later interrupt the owning goroutine.
func (r *Registry[T]) Create(record T, cancel context.CancelFunc) *eventbus.Bus {
	bus := eventbus.New(eventbus.DefaultCapacity)
	e := &entry[T]{record: record, bus: bus, cancel: cancel}

	r.mu.Lock()
	r.entries[record.RecordID()] = e
	r.mu.Unlock()

	return bus
}

// Get returns a cloned copy of the stored record, safe for the caller to
// read without holding any registry lock.
func (r *Registry[T]) Get(id string) (T, bool) {
	e, ok := r.lookup(id)
	if !ok {
		var zero T
		return zero, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.record.Clone(), true
}

// Bus returns the event bus for id, for subscribing to its event stream.
func (r *Registry[T]) Bus(id string) (*eventbus.Bus, bool) {
	e, ok := r.lookup(id)
	if !ok {
		return nil, false
	}
	return e.bus, true
}

// Update applies fn to the stored record under its lock.
func (r *Registry[T]) Update(id string, fn func(*T)) (T, bool) {
	e, ok := r.lookup(id)
	if !ok {
		var zero T
		return zero, false
	}
	e.mu.Lock()
	fn(&e.record)
	cp := e.record.Clone()
	e.mu.Unlock()
	return cp, true
}

// Complete applies fn to the record, then marks the entry terminal and
// stamps completedAt so the sweep can later reclaim it. fn is expected to
// set the record's status to a terminal value itself.
func (r *Registry[T]) Complete(id string, fn func(*T)) (T, bool) {
	e, ok := r.lookup(id)
	if !ok {
		var zero T
		return zero, false
	}
	e.mu.Lock()
	fn(&e.record)
	e.terminal = true
	e.completedAt = time.Now()
	cp := e.record.Clone()
	e.mu.Unlock()
	return cp, true
}

// Cancel invokes the stored cancel function for id, if any, and reports
// whether an entry was found.
func (r *Registry[T]) Cancel(id string) bool {
	e, ok := r.lookup(id)
	if !ok {
		return false
	}
	e.mu.RLock()
	cancel := e.cancel
	e.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	return true
}

// List returns a cloned copy of every stored record, in no particular
// order.
func (r *Registry[T]) List() []T {
	r.mu.RLock()
	entries := make([]*entry[T], 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]T, 0, len(entries))
	for _, e := range entries {
		e.mu.RLock()
		out = append(out, e.record.Clone())
		e.mu.RUnlock()
	}
	return out
}

// Stats reports the current count of jobs per Class.
func (r *Registry[T]) Stats() Stats {
	var s Stats
	for _, rec := range r.List() {
		switch r.classify(rec.RecordStatus()) {
		case ClassActive:
			s.Active++
		case ClassCompleted:
			s.Completed++
		case ClassFailed:
			s.Failed++
		}
	}
	return s
}

func (r *Registry[T]) lookup(id string) (*entry[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// sweep removes entries whose terminal status has outlived the TTL.
func (r *Registry[T]) sweep() {
	if r.ttl <= 0 {
		return
	}
	now := time.Now()

	var expired []string
	r.mu.RLock()
	for id, e := range r.entries {
		e.mu.RLock()
		if e.terminal && now.Sub(e.completedAt) > r.ttl {
			expired = append(expired, id)
		}
		e.mu.RUnlock()
	}
	r.mu.RUnlock()

	if len(expired) == 0 {
		return
	}

	r.mu.Lock()
	for _, id := range expired {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Debug().Str("registry", r.name).Int("expired", len(expired)).Msg("swept expired job entries")
	}
}
