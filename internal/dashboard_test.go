package internal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/tickboard/config"
	"github.com/vadiminshakov/tickboard/internal/domain"
	"github.com/vadiminshakov/tickboard/internal/events"
	"github.com/vadiminshakov/tickboard/internal/metrics"
	"github.com/vadiminshakov/tickboard/internal/view"
	"go.uber.org/zap"
)

type memorySink struct {
	mu   sync.Mutex
	msgs []events.Message
}

func (s *memorySink) Publish(m events.Message) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, m)
	return 0
}

func (s *memorySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func (s *memorySink) byWidget() map[string][]events.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]events.Message)
	for _, m := range s.msgs {
		out[m.Widget] = append(out[m.Widget], m)
	}
	return out
}

func fastConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.RandomSeed = 42
	cfg.FlashDuration = 20 * time.Millisecond
	for i := range cfg.Widgets {
		cfg.Widgets[i].Interval = 5 * time.Millisecond
	}
	return cfg
}

func TestDashboard_PublishesSeededStateOnStart(t *testing.T) {
	cfg := fastConfig(t)
	for i := range cfg.Widgets {
		cfg.Widgets[i].Interval = time.Hour
	}

	sink := &memorySink{}
	d, err := NewDashboard(cfg, zap.NewNop(), nil, sink)
	require.NoError(t, err)

	require.NoError(t, d.Start())
	defer d.Close()

	got := sink.byWidget()
	require.Len(t, got, len(cfg.Widgets))
	for _, w := range cfg.Widgets {
		require.Len(t, got[w.Name], 1, w.Name)
		assert.Equal(t, uint64(0), got[w.Name][0].Seq)
		assert.Equal(t, w.Kind, got[w.Name][0].Kind)
	}

	board, ok := got["crypto"][0].Data.(view.Board)
	require.True(t, ok)
	assert.Len(t, board.Rows, 4)
	assert.Equal(t, "crypto", board.Widget)
}

func TestDashboard_WidgetsTickIndependently(t *testing.T) {
	cfg := fastConfig(t)
	sink := &memorySink{}
	d, err := NewDashboard(cfg, zap.NewNop(), metrics.NewRegistry(), sink)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	assert.Eventually(t, func() bool {
		got := sink.byWidget()
		for _, w := range cfg.Widgets {
			if len(got[w.Name]) < 3 {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("dashboard did not stop")
	}

	stoppedAt := sink.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stoppedAt, sink.count())
}

func TestDashboard_ZeroVolatilityKeepsPrices(t *testing.T) {
	cfg := fastConfig(t)
	crypto, ok := cfg.Widget("crypto")
	require.True(t, ok)
	crypto.Volatility = 0
	cfg.Widgets = []config.Widget{crypto}

	sink := &memorySink{}
	d, err := NewDashboard(cfg, zap.NewNop(), nil, sink)
	require.NoError(t, err)
	require.NoError(t, d.Start())

	assert.Eventually(t, func() bool { return sink.count() >= 4 }, time.Second, 5*time.Millisecond)
	d.Close()

	msgs := sink.byWidget()["crypto"]
	first := msgs[0].Data.(view.Board)
	last := msgs[len(msgs)-1].Data.(view.Board)
	assert.Equal(t, first.Totals.Value, last.Totals.Value)
	assert.Equal(t, first.Totals.DayChange, last.Totals.DayChange)
	assert.Equal(t, domain.Unchanged, last.Totals.DayChangeFlash)
	for i, row := range last.Rows {
		assert.Equal(t, first.Rows[i].Price, row.Price)
		assert.Equal(t, domain.Unchanged, row.PriceFlash)
	}

	b, ok := d.Binder("crypto")
	require.True(t, ok)
	_, ok = b.Latest()
	assert.True(t, ok)
}

func TestNewDashboard_InvalidWidget(t *testing.T) {
	cfg := fastConfig(t)
	cfg.Widgets[0].Volatility = 1.5

	_, err := NewDashboard(cfg, nil, nil, &memorySink{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), cfg.Widgets[0].Name)
}
