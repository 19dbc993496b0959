// Package clock implements the wall clock widget step.
package clock

import "time"

// Step returns a step that reports the tick time in loc.
func Step(loc *time.Location) func(time.Time, time.Time) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return func(_ time.Time, now time.Time) (time.Time, error) {
		return now.In(loc), nil
	}
}
