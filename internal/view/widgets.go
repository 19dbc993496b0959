package view

import (
	"time"

	"github.com/vadiminshakov/tickboard/internal/domain"
	"github.com/vadiminshakov/tickboard/internal/events"
	"github.com/vadiminshakov/tickboard/internal/services/ticker"
)

// ClockView rendered clock widget.
type ClockView struct {
	Widget string `json:"widget"`
	Time   string `json:"time"`
	Date   string `json:"date"`
	Zone   string `json:"zone"`
}

// RenderClock formats the clock frame.
func RenderClock(widget string, frame ticker.Frame[time.Time]) ClockView {
	now := frame.Current
	zone, _ := now.Zone()
	return ClockView{
		Widget: widget,
		Time:   now.Format("15:04:05"),
		Date:   now.Format("Mon, 02 Jan 2006"),
		Zone:   zone,
	}
}

// ClockListener publishes every clock frame to sink.
func ClockListener(widget string, sink Sink) ticker.Listener[time.Time] {
	return func(frame ticker.Frame[time.Time]) {
		sink.Publish(events.Message{
			Widget: widget,
			Kind:   events.KindClock,
			Seq:    frame.Seq,
			At:     frame.At,
			Data:   RenderClock(widget, frame),
		})
	}
}

// ThreatLogView rendered threat-log widget, newest event first.
type ThreatLogView struct {
	Widget string               `json:"widget"`
	Events []domain.ThreatEvent `json:"events"`
}

// RenderThreatLog lists distinct events newest first. Seed padding repeats
// the oldest event and is shown once.
func RenderThreatLog(widget string, frame ticker.Frame[domain.ThreatLog]) ThreatLogView {
	values := frame.Current.Values()
	out := make([]domain.ThreatEvent, 0, len(values))
	seen := make(map[string]struct{}, len(values))

	for i := len(values) - 1; i >= 0; i-- {
		ev := values[i]
		if _, ok := seen[ev.ID]; ok {
			continue
		}
		seen[ev.ID] = struct{}{}
		out = append(out, ev)
	}

	return ThreatLogView{Widget: widget, Events: out}
}

// ThreatLogListener publishes every threat-log frame to sink.
func ThreatLogListener(widget string, sink Sink) ticker.Listener[domain.ThreatLog] {
	return func(frame ticker.Frame[domain.ThreatLog]) {
		sink.Publish(events.Message{
			Widget: widget,
			Kind:   events.KindThreatLog,
			Seq:    frame.Seq,
			At:     frame.At,
			Data:   RenderThreatLog(widget, frame),
		})
	}
}
