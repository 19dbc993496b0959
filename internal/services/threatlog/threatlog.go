// Package threatlog generates the simulated security events of the threat-log widget.
package threatlog

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/tickboard/internal/domain"
	"github.com/vadiminshakov/tickboard/internal/services/pricer"
)

// Template event shape drawn at random on every tick.
type Template struct {
	Severity domain.Severity
	Source   string
	Message  string
}

// Generator appends one random event per tick to a rolling log.
type Generator struct {
	src       pricer.Source
	templates []Template
	newID     func() string
}

// NewGenerator creates a generator drawing from templates with src.
func NewGenerator(src pricer.Source, templates []Template) (*Generator, error) {
	if src == nil {
		return nil, errors.New("random source is required")
	}
	if len(templates) == 0 {
		return nil, errors.New("at least one threat template is required")
	}

	tpl := make([]Template, len(templates))
	copy(tpl, templates)

	return &Generator{
		src:       src,
		templates: tpl,
		newID:     func() string { return uuid.New().String() },
	}, nil
}

// Seed creates a log of the given capacity holding a single start event.
func (g *Generator) Seed(at time.Time, capacity int) (domain.ThreatLog, error) {
	start := domain.ThreatEvent{
		ID:       g.newID(),
		At:       at,
		Severity: domain.SeverityLow,
		Source:   "monitor",
		Message:  "threat monitoring started",
	}
	return domain.Seed(start, capacity)
}

// Step appends a freshly generated event at now.
func (g *Generator) Step(prev domain.ThreatLog, now time.Time) (domain.ThreatLog, error) {
	idx := int(g.src.Float64() * float64(len(g.templates)))
	if idx >= len(g.templates) {
		idx = len(g.templates) - 1
	}
	tpl := g.templates[idx]

	return prev.Append(domain.ThreatEvent{
		ID:       g.newID(),
		At:       now,
		Severity: tpl.Severity,
		Source:   tpl.Source,
		Message:  tpl.Message,
	}), nil
}
