package ticker

import "time"

// Frame two-slot history handed to listeners on every published tick.
type Frame[S any] struct {
	// Seq tick number, 0 for the seeded state.
	Seq uint64
	// At time of the tick that produced Current.
	At time.Time
	// Current state after the tick.
	Current S
	// Previous state before the tick, equal to Current for the seeded frame.
	Previous S
}

// Listener receives frames synchronously. It must not block: slow consumers
// should hand frames off to a buffered fan-out instead of doing work inline.
type Listener[S any] func(Frame[S])

// StepFunc computes the next state from the previous one at tick time now.
type StepFunc[S any] func(prev S, now time.Time) (S, error)

// Observer receives per-tick measurements.
type Observer interface {
	ObserveTick(widget string, took time.Duration)
	ObserveSkippedTick(widget, reason string)
}

type nopObserver struct{}

func (nopObserver) ObserveTick(string, time.Duration)  {}
func (nopObserver) ObserveSkippedTick(string, string) {}
