package view

import (
	"sync"
	"time"

	"github.com/vadiminshakov/tickboard/internal/domain"
	"github.com/vadiminshakov/tickboard/internal/events"
	"github.com/vadiminshakov/tickboard/internal/services/detector"
	"github.com/vadiminshakov/tickboard/internal/services/ticker"
	"go.uber.org/zap"
)

// Sink receives rendered messages, events.Broadcaster satisfies it.
// It must not block and returns how many consumers missed the message.
type Sink interface {
	Publish(events.Message) int
}

// Observer receives rendering measurements.
type Observer interface {
	ObserveFlash(widget string, dir domain.Direction)
	ObserveDropped(widget string, n int)
	SetPortfolioValue(widget string, value float64)
}

type nopObserver struct{}

func (nopObserver) ObserveFlash(string, domain.Direction) {}
func (nopObserver) ObserveDropped(string, int)            {}
func (nopObserver) SetPortfolioValue(string, float64)     {}

// BinderOption configures a Binder.
type BinderOption func(*Binder)

// WithObserver reports flashes, drops and portfolio value.
func WithObserver(obs Observer) BinderOption {
	return func(b *Binder) {
		if obs != nil {
			b.observer = obs
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) BinderOption {
	return func(b *Binder) {
		if l != nil {
			b.logger = l
		}
	}
}

// Binder turns market frames into boards: it diffs each frame, drives the
// flash timers and publishes a board on every frame and every flash expiry.
type Binder struct {
	widget   string
	format   Format
	sink     Sink
	flasher  *detector.Flasher
	observer Observer
	logger   *zap.Logger

	mu      sync.Mutex
	last    ticker.Frame[domain.Snapshot]
	hasLast bool
	latest  Board
}

// NewBinder creates a binder for one market widget.
func NewBinder(widget string, format Format, sink Sink, flashDuration time.Duration, opts ...BinderOption) *Binder {
	b := &Binder{
		widget:   widget,
		format:   format,
		sink:     sink,
		observer: nopObserver{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(zap.String("widget", widget))
	b.flasher = detector.NewFlasher(flashDuration, detector.WithOnExpire(b.onFlashExpired))

	return b
}

// OnFrame is the scheduler listener of the widget.
func (b *Binder) OnFrame(frame ticker.Frame[domain.Snapshot]) {
	for field, dir := range Diff(frame) {
		if b.flasher.Trigger(field, dir) {
			b.observer.ObserveFlash(b.widget, dir)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.last = frame
	b.hasLast = true
	b.publishLocked()
}

// Latest returns the last published board.
func (b *Binder) Latest() (Board, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest, b.hasLast
}

// Flash returns the active flash of a field.
func (b *Binder) Flash(field string) domain.Direction {
	return b.flasher.State(field)
}

// Close stops all pending flash timers.
func (b *Binder) Close() {
	b.flasher.Close()
}

func (b *Binder) onFlashExpired(field string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.hasLast {
		return
	}
	b.logger.Debug("flash expired", zap.String("field", field))
	b.publishLocked()
}

// publishLocked renders the last frame with the current flashes. Holding mu
// keeps frame and expiry publications in order.
func (b *Binder) publishLocked() {
	board := Render(b.widget, b.last, b.flasher.Active(), b.format)
	b.latest = board

	value, _ := board.TotalValue.Float64()
	b.observer.SetPortfolioValue(b.widget, value)

	dropped := b.sink.Publish(events.Message{
		Widget: b.widget,
		Kind:   events.KindMarket,
		Seq:    board.Seq,
		At:     board.At,
		Data:   board,
	})
	if dropped > 0 {
		b.logger.Debug("board dropped for slow consumers", zap.Int("dropped", dropped))
		b.observer.ObserveDropped(b.widget, dropped)
	}
}
