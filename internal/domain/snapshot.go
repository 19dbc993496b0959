package domain

import (
	"time"

	"github.com/pkg/errors"
)

// ErrDuplicateSymbol is returned when a snapshot is built with a repeated symbol.
var ErrDuplicateSymbol = errors.New("duplicate instrument symbol")

// Snapshot immutable point-in-time state of every instrument of a widget.
// Accessors return copies, so a Snapshot is safe to share between goroutines.
type Snapshot struct {
	at          time.Time
	order       []string
	instruments map[string]Instrument
}

// NewSnapshot creates a snapshot. The slice order becomes the display order.
func NewSnapshot(at time.Time, instruments []Instrument) (Snapshot, error) {
	s := Snapshot{
		at:          at,
		order:       make([]string, 0, len(instruments)),
		instruments: make(map[string]Instrument, len(instruments)),
	}

	for _, in := range instruments {
		if _, ok := s.instruments[in.Symbol]; ok {
			return Snapshot{}, errors.Wrap(ErrDuplicateSymbol, in.Symbol)
		}
		s.order = append(s.order, in.Symbol)
		s.instruments[in.Symbol] = in
	}

	return s, nil
}

// At returns the tick time the snapshot was taken at.
func (s Snapshot) At() time.Time {
	return s.at
}

// Len returns the number of instruments.
func (s Snapshot) Len() int {
	return len(s.order)
}

// Get returns the instrument with the given symbol.
func (s Snapshot) Get(symbol string) (Instrument, bool) {
	in, ok := s.instruments[symbol]
	return in, ok
}

// Instruments returns all instruments in display order.
func (s Snapshot) Instruments() []Instrument {
	out := make([]Instrument, 0, len(s.order))
	for _, symbol := range s.order {
		out = append(out, s.instruments[symbol])
	}
	return out
}

// Symbols returns instrument symbols in display order.
func (s Snapshot) Symbols() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
