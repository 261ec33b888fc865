// Package scheduler runs keyed, cancellable delayed tasks. It backs deferred
// work that must not outlive its owner, such as the support acknowledgement.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ErrStopped is returned by Schedule after Stop.
var ErrStopped = errors.New("scheduler stopped")

var (
	scheduledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "maison",
		Subsystem: "scheduler",
		Name:      "scheduled_total",
		Help:      "Delayed tasks accepted.",
	})
	firedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "maison",
		Subsystem: "scheduler",
		Name:      "fired_total",
		Help:      "Delayed tasks that ran.",
	})
	cancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "maison",
		Subsystem: "scheduler",
		Name:      "cancelled_total",
		Help:      "Delayed tasks cancelled or replaced before running.",
	})
)

type task struct {
	timer *time.Timer
}

// Scheduler owns a set of pending timers keyed by string. Scheduling a key
// that is already pending replaces the earlier task.
type Scheduler struct {
	log zerolog.Logger

	mu      sync.Mutex
	tasks   map[string]*task
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a running scheduler.
func New(log zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		log:    log.With().Str("component", "scheduler").Logger(),
		tasks:  make(map[string]*task),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule runs fn once after delay. fn receives a context that is cancelled
// when the scheduler stops.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func(context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if prev, ok := s.tasks[key]; ok {
		s.stopTimer(prev)
	}

	t := &task{}
	s.wg.Add(1)
	t.timer = time.AfterFunc(delay, func() { s.fire(key, t, fn) })
	s.tasks[key] = t
	scheduledTotal.Inc()
	return nil
}

// Cancel drops the pending task for key. It reports whether one was pending.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	t, ok := s.tasks[key]
	if ok {
		delete(s.tasks, key)
	}
	s.mu.Unlock()
	if ok {
		s.stopTimer(t)
	}
	return ok
}

// Pending returns the number of tasks not yet fired.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Stop cancels every pending task, cancels the context of running ones and
// waits for them to return. It is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	pending := make([]*task, 0, len(s.tasks))
	for key, t := range s.tasks {
		pending = append(pending, t)
		delete(s.tasks, key)
	}
	s.mu.Unlock()

	s.cancel()
	for _, t := range pending {
		s.stopTimer(t)
	}
	s.wg.Wait()
	s.log.Debug().Int("cancelled", len(pending)).Msg("scheduler stopped")
}

// stopTimer releases the wait-group slot of a timer that had not fired yet.
// A timer that already fired releases its own slot in fire.
func (s *Scheduler) stopTimer(t *task) {
	if t.timer.Stop() {
		cancelledTotal.Inc()
		s.wg.Done()
	}
}

func (s *Scheduler) fire(key string, t *task, fn func(context.Context)) {
	defer s.wg.Done()

	s.mu.Lock()
	current := s.tasks[key] == t
	if current {
		delete(s.tasks, key)
	}
	stopped := s.stopped
	s.mu.Unlock()
	if !current || stopped {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("key", key).Interface("panic", r).Msg("scheduled task panic")
		}
	}()
	firedTotal.Inc()
	fn(s.ctx)
}
