package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrEmptySeries is returned when the latest value of an unseeded window is requested.
	ErrEmptySeries = errors.New("series is not seeded")
	// ErrInvalidCapacity is returned when a window is seeded with capacity below one.
	ErrInvalidCapacity = errors.New("series capacity must be at least 1")
)

// Window fixed-capacity rolling history, ordered oldest to newest.
// The zero Window has capacity 0 and holds nothing.
type Window[T any] struct {
	values []T
}

// Series rolling price history of one instrument.
type Series = Window[decimal.Decimal]

// Seed creates a window of n copies of value.
func Seed[T any](value T, n int) (Window[T], error) {
	if n < 1 {
		return Window[T]{}, ErrInvalidCapacity
	}

	values := make([]T, n)
	for i := range values {
		values[i] = value
	}

	return Window[T]{values: values}, nil
}

// SeedFrom creates a window of capacity n from historical values.
// Shorter input is padded at the front with its oldest value,
// longer input keeps the newest n entries.
func SeedFrom[T any](history []T, n int) (Window[T], error) {
	if n < 1 {
		return Window[T]{}, ErrInvalidCapacity
	}
	if len(history) == 0 {
		return Window[T]{}, errors.Wrap(ErrEmptySeries, "seed from empty history")
	}

	values := make([]T, n)
	if len(history) >= n {
		copy(values, history[len(history)-n:])
		return Window[T]{values: values}, nil
	}

	pad := n - len(history)
	for i := 0; i < pad; i++ {
		values[i] = history[0]
	}
	copy(values[pad:], history)

	return Window[T]{values: values}, nil
}

// Append returns a new window with value as the newest entry and the oldest entry evicted.
// A window has no capacity until it is seeded, so appending to the zero
// window returns it unchanged. Callers that own live series check Len first.
func (w Window[T]) Append(value T) Window[T] {
	if len(w.values) == 0 {
		return w
	}

	values := make([]T, len(w.values))
	copy(values, w.values[1:])
	values[len(values)-1] = value

	return Window[T]{values: values}
}

// Latest returns the newest entry.
func (w Window[T]) Latest() (T, error) {
	if len(w.values) == 0 {
		var zero T
		return zero, ErrEmptySeries
	}

	return w.values[len(w.values)-1], nil
}

// Oldest returns the oldest entry.
func (w Window[T]) Oldest() (T, error) {
	if len(w.values) == 0 {
		var zero T
		return zero, ErrEmptySeries
	}

	return w.values[0], nil
}

// Values returns a copy of the entries, oldest first.
func (w Window[T]) Values() []T {
	out := make([]T, len(w.values))
	copy(out, w.values)
	return out
}

// Len returns the number of entries. It equals the capacity once seeded.
func (w Window[T]) Len() int {
	return len(w.values)
}
