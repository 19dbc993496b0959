// Package tui draws the dashboard in a terminal.
package tui

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vadiminshakov/tickboard/internal/domain"
	"github.com/vadiminshakov/tickboard/internal/events"
	"github.com/vadiminshakov/tickboard/internal/view"
)

var (
	up   = lipgloss.AdaptiveColor{Light: "#1F9D55", Dark: "#73F59F"}
	down = lipgloss.AdaptiveColor{Light: "#CC1F1A", Dark: "#FF6B6B"}

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().Faint(true)
	upStyle    = lipgloss.NewStyle().Foreground(up).Bold(true)
	downStyle  = lipgloss.NewStyle().Foreground(down).Bold(true)
)

func flash(s string, dir domain.Direction) string {
	switch dir {
	case domain.Increased:
		return upStyle.Render(s)
	case domain.Decreased:
		return downStyle.Render(s)
	default:
		return s
	}
}

// RenderMessage draws one widget panel.
func RenderMessage(msg events.Message) string {
	var body string
	switch data := msg.Data.(type) {
	case view.Board:
		body = renderBoard(data)
	case view.ClockView:
		body = fmt.Sprintf("%s\n%s", titleStyle.Render(data.Time), mutedStyle.Render(data.Date+" "+data.Zone))
	case view.ThreatLogView:
		body = renderThreats(data)
	default:
		body = fmt.Sprintf("%v", data)
	}

	return panelStyle.Render(titleStyle.Render(strings.ToUpper(msg.Widget)) + "\n" + body)
}

func renderBoard(b view.Board) string {
	var sb strings.Builder
	for _, r := range b.Rows {
		fmt.Fprintf(&sb, "%-6s %14s %12s %14s %8s %s\n",
			r.Symbol,
			flash(r.Price, r.PriceFlash),
			r.Quantity,
			flash(r.Value, r.ValueFlash),
			r.DayChangePercent,
			mutedStyle.Render(r.Sparkline),
		)
	}
	fmt.Fprintf(&sb, "%s  %s (%s)  %s",
		flash(b.Totals.Value, b.Totals.ValueFlash),
		flash(b.Totals.DayChange, b.Totals.DayChangeFlash),
		b.Totals.DayChangePercent,
		mutedStyle.Render(fmt.Sprintf("tick #%d", b.Seq)),
	)
	return sb.String()
}

func renderThreats(v view.ThreatLogView) string {
	lines := make([]string, 0, len(v.Events))
	for _, e := range v.Events {
		line := fmt.Sprintf("%s [%s] %s: %s", e.At.Format("15:04:05"), e.Severity, e.Source, e.Message)
		if e.Severity == domain.SeverityHigh || e.Severity == domain.SeverityCritical {
			line = downStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Render draws all widgets ordered by name.
func Render(latest map[string]events.Message) string {
	names := make([]string, 0, len(latest))
	for name := range latest {
		names = append(names, name)
	}
	sort.Strings(names)

	panels := make([]string, 0, len(names))
	for _, name := range names {
		panels = append(panels, RenderMessage(latest[name]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, panels...)
}

// Watch redraws out on every message of ch until ctx is done or ch is closed.
// An empty widget shows every widget.
func Watch(ctx context.Context, ch <-chan events.Message, out io.Writer, widget string) error {
	latest := make(map[string]events.Message)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if widget != "" && msg.Widget != widget {
				continue
			}
			latest[msg.Widget] = msg

			if _, err := fmt.Fprint(out, "\033[H\033[2J"+Render(latest)+"\n"); err != nil {
				return err
			}
		}
	}
}
