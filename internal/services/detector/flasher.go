package detector

import (
	"sync"
	"time"

	"github.com/vadiminshakov/tickboard/internal/domain"
)

// DefaultFlashDuration how long a flash stays visible.
const DefaultFlashDuration = 600 * time.Millisecond

type flash struct {
	dir   domain.Direction
	token uint64
	timer *time.Timer
}

// FlasherOption configures a Flasher.
type FlasherOption func(*Flasher)

// WithOnExpire sets a callback run after a field's flash reverts to neutral.
// It is called without internal locks held.
func WithOnExpire(fn func(field string)) FlasherOption {
	return func(f *Flasher) {
		f.onExpire = fn
	}
}

// Flasher holds self-expiring flash states keyed by field name.
// A new flash on a field replaces the running one and restarts its timer.
type Flasher struct {
	duration time.Duration
	onExpire func(field string)

	mu      sync.Mutex
	closed  bool
	seq     uint64
	flashes map[string]*flash
}

// NewFlasher creates a flasher, a non-positive duration means DefaultFlashDuration.
func NewFlasher(duration time.Duration, opts ...FlasherOption) *Flasher {
	if duration <= 0 {
		duration = DefaultFlashDuration
	}

	f := &Flasher{
		duration: duration,
		flashes:  make(map[string]*flash),
	}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Duration returns the flash lifetime.
func (f *Flasher) Duration() time.Duration {
	return f.duration
}

// Trigger flashes field in direction dir. Unchanged leaves an active flash
// running until it expires. It reports whether a flash was (re)started.
func (f *Flasher) Trigger(field string, dir domain.Direction) bool {
	if dir == domain.Unchanged {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false
	}

	if current, ok := f.flashes[field]; ok {
		current.timer.Stop()
	}

	f.seq++
	token := f.seq
	fl := &flash{dir: dir, token: token}
	fl.timer = time.AfterFunc(f.duration, func() {
		f.expire(field, token)
	})
	f.flashes[field] = fl

	return true
}

// State returns the active flash of field, Unchanged when none.
func (f *Flasher) State(field string) domain.Direction {
	f.mu.Lock()
	defer f.mu.Unlock()

	if fl, ok := f.flashes[field]; ok {
		return fl.dir
	}
	return domain.Unchanged
}

// Active returns a copy of all running flashes.
func (f *Flasher) Active() map[string]domain.Direction {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]domain.Direction, len(f.flashes))
	for field, fl := range f.flashes {
		out[field] = fl.dir
	}
	return out
}

// Close cancels every pending flash timer. Later triggers are ignored.
func (f *Flasher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	for field, fl := range f.flashes {
		fl.timer.Stop()
		delete(f.flashes, field)
	}
}

// expire reverts field unless the flash identified by token was superseded
// or the flasher closed in the meantime.
func (f *Flasher) expire(field string, token uint64) {
	f.mu.Lock()
	current, ok := f.flashes[field]
	if f.closed || !ok || current.token != token {
		f.mu.Unlock()
		return
	}
	delete(f.flashes, field)
	cb := f.onExpire
	f.mu.Unlock()

	if cb != nil {
		cb(field)
	}
}
