package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/tickboard/internal/events"
	"github.com/vadiminshakov/tickboard/internal/services/pricer"
)

func TestLoad_Fixture(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 600*time.Millisecond, cfg.FlashDuration)
	require.Len(t, cfg.Widgets, 5)

	crypto, ok := cfg.Widget("crypto")
	require.True(t, ok)
	assert.Equal(t, events.KindMarket, crypto.Kind)
	assert.Equal(t, 3*time.Second, crypto.Interval)
	assert.Equal(t, "USD", crypto.Currency)
	require.Len(t, crypto.Holdings, 4)
	assert.Equal(t, "BTC", crypto.Holdings[0].Symbol)
	assert.True(t, decimal.RequireFromString("43250").Equal(crypto.Holdings[0].Price))
	assert.Len(t, crypto.Holdings[0].History, 5)

	fx, ok := cfg.Widget("fx")
	require.True(t, ok)
	assert.Equal(t, 2500*time.Millisecond, fx.Interval)
	assert.Equal(t, int32(4), fx.Precision)

	gas, ok := cfg.Widget("gas")
	require.True(t, ok)
	assert.True(t, gas.Bounded)
	assert.Equal(t, int32(0), gas.Precision)
	assert.True(t, decimal.NewFromInt(10).Equal(gas.Min))
	assert.True(t, decimal.NewFromInt(80).Equal(gas.Max))

	clock, ok := cfg.Widget("clock")
	require.True(t, ok)
	assert.Equal(t, time.Local, clock.Location)

	threats, ok := cfg.Widget("threats")
	require.True(t, ok)
	assert.Equal(t, 8, threats.SeriesLength)
	assert.NotEmpty(t, threats.Threats)

	_, ok = cfg.Widget("missing")
	assert.False(t, ok)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widgets.yaml")
	doc := `
widgets:
  - name: fx
    kind: market
    interval: 1s
    volatility: 0.001
    instruments:
      - symbol: EURUSD
        name: EUR / USD
        price: "1.08"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, defaultFlashDuration, cfg.FlashDuration)

	require.Len(t, cfg.Widgets, 1)
	w := cfg.Widgets[0]
	assert.Equal(t, defaultSeriesLength, w.SeriesLength)
	assert.Equal(t, int32(defaultPrecision), w.Precision)
	assert.True(t, w.Holdings[0].Quantity.IsZero())
	assert.False(t, w.Bounded)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	market := func(mod func(*WidgetTmp)) ConfigTmp {
		w := WidgetTmp{
			Name:       "m",
			Kind:       "market",
			Interval:   time.Second,
			Volatility: 0.01,
			Instruments: []InstrumentTmp{
				{Symbol: "A", Name: "a", Price: "10", Quantity: "1"},
			},
		}
		mod(&w)
		return ConfigTmp{Widgets: []WidgetTmp{w}}
	}

	tests := []struct {
		name    string
		tmp     ConfigTmp
		wantErr error
	}{
		{name: "no widgets", tmp: ConfigTmp{}},
		{name: "zero interval", tmp: market(func(w *WidgetTmp) { w.Interval = 0 })},
		{name: "volatility too high", tmp: market(func(w *WidgetTmp) { w.Volatility = 1 }), wantErr: pricer.ErrInvalidVolatility},
		{name: "negative volatility", tmp: market(func(w *WidgetTmp) { w.Volatility = -0.1 }), wantErr: pricer.ErrInvalidVolatility},
		{name: "inverted bounds", tmp: market(func(w *WidgetTmp) { w.Min, w.Max = "20", "10" }), wantErr: pricer.ErrInvalidBounds},
		{name: "bad price", tmp: market(func(w *WidgetTmp) { w.Instruments[0].Price = "abc" })},
		{name: "zero price", tmp: market(func(w *WidgetTmp) { w.Instruments[0].Price = "0" })},
		{name: "negative quantity", tmp: market(func(w *WidgetTmp) { w.Instruments[0].Quantity = "-1" })},
		{name: "no instruments", tmp: market(func(w *WidgetTmp) { w.Instruments = nil })},
		{name: "unknown kind", tmp: market(func(w *WidgetTmp) { w.Kind = "radar" })},
		{name: "duplicate names", tmp: ConfigTmp{Widgets: []WidgetTmp{
			{Name: "c", Kind: "clock", Interval: time.Second},
			{Name: "c", Kind: "clock", Interval: time.Second},
		}}},
		{name: "unknown timezone", tmp: ConfigTmp{Widgets: []WidgetTmp{
			{Name: "c", Kind: "clock", Interval: time.Second, Timezone: "Mars/Olympus"},
		}}},
		{name: "unknown severity", tmp: ConfigTmp{Widgets: []WidgetTmp{
			{Name: "t", Kind: "threatlog", Interval: time.Second, Threats: []ThreatTmp{{Severity: "apocalyptic"}}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.tmp)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestMarshal_RoundTripsFixture(t *testing.T) {
	tmp, err := LoadTmp("")
	require.NoError(t, err)

	data, err := Marshal(tmp)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Widgets, 5)
}
