package tui

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/tickboard/internal/domain"
	"github.com/vadiminshakov/tickboard/internal/events"
	"github.com/vadiminshakov/tickboard/internal/view"
)

func board() events.Message {
	return events.Message{
		Widget: "crypto",
		Kind:   events.KindMarket,
		Seq:    7,
		Data: view.Board{
			Widget: "crypto",
			Seq:    7,
			Rows: []view.Row{
				{Symbol: "BTC", Price: "$43,250.00", Quantity: "0.85", Value: "$36,762.50", DayChangePercent: "+2.34%", PriceFlash: domain.Increased},
			},
			Totals: view.TotalsView{Value: "$36,762.50", DayChange: "+$840.59", DayChangePercent: "+2.34%"},
		},
	}
}

func TestRenderMessage(t *testing.T) {
	out := RenderMessage(board())
	assert.Contains(t, out, "CRYPTO")
	assert.Contains(t, out, "BTC")
	assert.Contains(t, out, "$43,250.00")
	assert.Contains(t, out, "tick #7")

	clock := RenderMessage(events.Message{
		Widget: "clock",
		Data:   view.ClockView{Time: "12:00:01", Date: "Wed, 01 May 2024", Zone: "UTC"},
	})
	assert.Contains(t, clock, "12:00:01")

	threats := RenderMessage(events.Message{
		Widget: "threats",
		Data: view.ThreatLogView{Events: []domain.ThreatEvent{
			{ID: "1", Severity: domain.SeverityCritical, Source: "ids", Message: "blocked"},
		}},
	})
	assert.Contains(t, threats, "ids: blocked")
}

func TestRender_OrdersByName(t *testing.T) {
	out := Render(map[string]events.Message{
		"zeta":  {Widget: "zeta", Data: "z"},
		"alpha": {Widget: "alpha", Data: "a"},
	})
	assert.Less(t, bytes.Index([]byte(out), []byte("ALPHA")), bytes.Index([]byte(out), []byte("ZETA")))
}

func TestWatch_FiltersWidget(t *testing.T) {
	ch := make(chan events.Message, 2)
	ch <- events.Message{Widget: "clock", Data: view.ClockView{Time: "12:00:01"}}
	ch <- board()
	close(ch)

	var out bytes.Buffer
	require.NoError(t, Watch(context.Background(), ch, &out, "crypto"))
	assert.Contains(t, out.String(), "BTC")
	assert.NotContains(t, out.String(), "12:00:01")
}

func TestWatch_StopsOnContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	assert.NoError(t, Watch(ctx, make(chan events.Message), &out, ""))
	assert.Empty(t, out.String())
}
