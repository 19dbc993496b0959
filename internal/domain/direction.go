package domain

import "fmt"

// Direction classification of a value's latest change.
type Direction int

const (
	// Unchanged value equals the previous one, also the neutral flash state.
	Unchanged Direction = iota
	// Increased value is greater than the previous one.
	Increased
	// Decreased value is less than the previous one.
	Decreased
)

// String returns the string representation.
func (d Direction) String() string {
	switch d {
	case Unchanged:
		return "unchanged"
	case Increased:
		return "increased"
	case Decreased:
		return "decreased"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// MarshalText encodes the direction by name for JSON payloads.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name.
func (d *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "unchanged", "":
		*d = Unchanged
	case "increased":
		*d = Increased
	case "decreased":
		*d = Decreased
	default:
		return fmt.Errorf("unknown direction %q", string(text))
	}
	return nil
}
