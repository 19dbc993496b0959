// Package ticker drives widget state forward on a fixed interval and
// publishes every new state to subscribed listeners.
package ticker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrInvalidInterval is returned by Start for a non-positive interval.
var ErrInvalidInterval = errors.New("tick interval must be positive")

type options struct {
	logger   *zap.Logger
	observer Observer
}

// Option configures a Scheduler.
type Option func(*options)

// WithLogger sets the logger, zap.NewNop by default.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver reports tick timings, typically to metrics.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

type subscription[S any] struct {
	id uuid.UUID
	fn Listener[S]
}

// Scheduler periodic trigger owning one widget's state chain.
// Each widget gets its own Scheduler; schedulers share nothing.
type Scheduler[S any] struct {
	name     string
	step     StepFunc[S]
	logger   *zap.Logger
	observer Observer

	// tickMu serializes ticks: tick N+1 is not computed before tick N is published.
	tickMu sync.Mutex

	mu       sync.Mutex
	frame    Frame[S]
	gen      uint64
	running  bool
	interval time.Duration
	cancel   context.CancelFunc

	subsMu sync.RWMutex
	subs   []subscription[S]
}

// NewScheduler creates a stopped scheduler seeded with the initial state.
func NewScheduler[S any](name string, initial S, step StepFunc[S], opts ...Option) *Scheduler[S] {
	o := options{
		logger:   zap.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Scheduler[S]{
		name:     name,
		step:     step,
		logger:   o.logger.With(zap.String("widget", name)),
		observer: o.observer,
		frame: Frame[S]{
			Current:  initial,
			Previous: initial,
		},
	}
}

// Name returns the widget name.
func (s *Scheduler[S]) Name() string {
	return s.name
}

// Start begins ticking every interval. A running scheduler is stopped first,
// so there is never more than one timer per scheduler.
func (s *Scheduler[S]) Start(interval time.Duration) error {
	if interval <= 0 {
		return errors.Wrapf(ErrInvalidInterval, "%s: got %s", s.name, interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	restart := s.running
	s.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	s.gen++
	s.cancel = cancel
	s.running = true
	s.interval = interval

	go s.run(ctx, s.gen, interval)

	s.logger.Info("scheduler started", zap.Duration("interval", interval), zap.Bool("restart", restart))
	return nil
}

// Stop cancels the timer. Once Stop returns, no tick scheduled before it
// mutates state and no further listener is called, even for a frame that is
// halfway through fan-out. A listener already running when Stop is called
// may finish. Stopping a stopped scheduler is a no-op.
func (s *Scheduler[S]) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.stopLocked()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler[S]) stopLocked() {
	if !s.running {
		return
	}
	s.cancel()
	s.cancel = nil
	s.gen++
	s.running = false
}

// Running reports whether the timer is active.
func (s *Scheduler[S]) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Interval returns the interval of the last Start.
func (s *Scheduler[S]) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Current returns the latest frame.
func (s *Scheduler[S]) Current() Frame[S] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Subscribe registers a listener and returns its id for Unsubscribe.
func (s *Scheduler[S]) Subscribe(fn Listener[S]) uuid.UUID {
	id := uuid.New()

	s.subsMu.Lock()
	s.subs = append(s.subs, subscription[S]{id: id, fn: fn})
	s.subsMu.Unlock()

	return id
}

// Unsubscribe removes a listener. It reports whether the id was registered.
func (s *Scheduler[S]) Unsubscribe(id uuid.UUID) bool {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Scheduler[S]) run(ctx context.Context, gen uint64, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.tick(gen, now)
		}
	}
}

// tick advances the state for timer generation gen. Callbacks of a stopped
// or restarted timer carry an outdated generation and are dropped.
func (s *Scheduler[S]) tick(gen uint64, now time.Time) bool {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	started := time.Now()

	s.mu.Lock()
	if !s.running || s.gen != gen {
		s.mu.Unlock()
		s.observer.ObserveSkippedTick(s.name, "stale")
		return false
	}

	prev := s.frame
	next, err := s.step(prev.Current, now)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("tick step failed", zap.Uint64("seq", prev.Seq+1), zap.Error(err))
		s.observer.ObserveSkippedTick(s.name, "step_error")
		return false
	}

	frame := Frame[S]{
		Seq:      prev.Seq + 1,
		At:       now,
		Current:  next,
		Previous: prev.Current,
	}
	s.frame = frame
	s.mu.Unlock()

	if !s.publish(gen, frame) {
		s.logger.Debug("fan-out cut short by stop", zap.Uint64("seq", frame.Seq))
		s.observer.ObserveSkippedTick(s.name, "stopped")
		return false
	}

	s.logger.Debug("tick published", zap.Uint64("seq", frame.Seq))
	s.observer.ObserveTick(s.name, time.Since(started))
	return true
}

// publish hands frame to every listener while generation gen is live. It
// reports false when a Stop or restart interrupted the fan-out.
func (s *Scheduler[S]) publish(gen uint64, frame Frame[S]) bool {
	s.subsMu.RLock()
	subs := make([]subscription[S], len(s.subs))
	copy(subs, s.subs)
	s.subsMu.RUnlock()

	for _, sub := range subs {
		if !s.live(gen) {
			return false
		}
		sub.fn(frame)
	}
	return true
}

func (s *Scheduler[S]) live(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.gen == gen
}

func (s *Scheduler[S]) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}
