// Package events carries rendered widget boards from the engine to the
// presentation surfaces.
package events

import "time"

// Kind widget kind of a message payload.
type Kind string

const (
	KindMarket    Kind = "market"
	KindClock     Kind = "clock"
	KindThreatLog Kind = "threatlog"
)

// Message a rendered widget update.
type Message struct {
	Widget string    `json:"widget"`
	Kind   Kind      `json:"kind"`
	Seq    uint64    `json:"seq"`
	At     time.Time `json:"ts"`
	Data   any       `json:"data"`
}
