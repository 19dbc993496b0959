// Package config loads the widget layout and mock fixture of the dashboard.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tickboard/internal/domain"
	"github.com/vadiminshakov/tickboard/internal/events"
	"github.com/vadiminshakov/tickboard/internal/services/market"
	"github.com/vadiminshakov/tickboard/internal/services/pricer"
	"github.com/vadiminshakov/tickboard/internal/services/threatlog"
	"gopkg.in/yaml.v3"
)

//go:embed fixture.yaml
var fixture []byte

const (
	defaultHTTPAddr      = ":8080"
	defaultFlashDuration = 600 * time.Millisecond
	defaultSeriesLength  = 20
	defaultPrecision     = 2
)

// Config dashboard configuration.
type Config struct {
	HTTPAddr      string
	FlashDuration time.Duration
	// RandomSeed seeds every widget's random source, 0 means time based.
	RandomSeed int64
	Widgets    []Widget
}

// Widget one independently ticking widget.
type Widget struct {
	Name         string
	Kind         events.Kind
	Interval     time.Duration
	Volatility   float64
	SeriesLength int
	Precision    int32
	Currency     string
	// Bounded is set when Min and Max clamp generated prices.
	Bounded  bool
	Min      decimal.Decimal
	Max      decimal.Decimal
	Location *time.Location
	Holdings []market.Holding
	Threats  []threatlog.Template
}

// ConfigTmp raw yaml document.
type ConfigTmp struct {
	HTTPAddr      string        `yaml:"http_addr,omitempty"`
	FlashDuration time.Duration `yaml:"flash_duration,omitempty"`
	RandomSeed    int64         `yaml:"random_seed,omitempty"`
	Widgets       []WidgetTmp   `yaml:"widgets"`
}

// WidgetTmp raw yaml widget.
type WidgetTmp struct {
	Name         string          `yaml:"name"`
	Kind         string          `yaml:"kind"`
	Interval     time.Duration   `yaml:"interval"`
	Volatility   float64         `yaml:"volatility,omitempty"`
	SeriesLength int             `yaml:"series_length,omitempty"`
	Precision    *int32          `yaml:"precision,omitempty"`
	Currency     string          `yaml:"currency,omitempty"`
	Min          string          `yaml:"min,omitempty"`
	Max          string          `yaml:"max,omitempty"`
	Timezone     string          `yaml:"timezone,omitempty"`
	Instruments  []InstrumentTmp `yaml:"instruments,omitempty"`
	Threats      []ThreatTmp     `yaml:"threats,omitempty"`
}

// InstrumentTmp raw yaml instrument, decimals kept as strings.
type InstrumentTmp struct {
	Symbol           string   `yaml:"symbol"`
	Name             string   `yaml:"name"`
	Price            string   `yaml:"price"`
	Quantity         string   `yaml:"quantity"`
	DayChangePercent string   `yaml:"day_change_percent,omitempty"`
	History          []string `yaml:"history,omitempty"`
}

// ThreatTmp raw yaml threat template.
type ThreatTmp struct {
	Severity string `yaml:"severity"`
	Source   string `yaml:"source"`
	Message  string `yaml:"message"`
}

// Load reads the config at path, or the embedded fixture when path is empty.
func Load(path string) (Config, error) {
	raw, err := LoadTmp(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(raw)
}

// LoadTmp reads the raw yaml document.
func LoadTmp(path string) (ConfigTmp, error) {
	data := fixture
	if path != "" {
		f, err := os.ReadFile(path)
		if err != nil {
			return ConfigTmp{}, err
		}
		data = f
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(data, &tmp); err != nil {
		return ConfigTmp{}, fmt.Errorf("decode yaml config: %w", err)
	}
	return tmp, nil
}

// Marshal encodes a raw document as yaml.
func Marshal(tmp ConfigTmp) ([]byte, error) {
	return yaml.Marshal(tmp)
}

// Parse validates the raw document and converts it to Config.
func Parse(tmp ConfigTmp) (Config, error) {
	cfg := Config{
		HTTPAddr:      tmp.HTTPAddr,
		FlashDuration: tmp.FlashDuration,
		RandomSeed:    tmp.RandomSeed,
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = defaultHTTPAddr
	}
	if cfg.FlashDuration <= 0 {
		cfg.FlashDuration = defaultFlashDuration
	}
	if len(tmp.Widgets) == 0 {
		return Config{}, fmt.Errorf("config has no widgets")
	}

	names := make(map[string]struct{}, len(tmp.Widgets))
	for _, w := range tmp.Widgets {
		if w.Name == "" {
			return Config{}, fmt.Errorf("widget name is required")
		}
		if _, ok := names[w.Name]; ok {
			return Config{}, fmt.Errorf("duplicate widget name %q", w.Name)
		}
		names[w.Name] = struct{}{}

		widget, err := parseWidget(w)
		if err != nil {
			return Config{}, fmt.Errorf("widget %q: %w", w.Name, err)
		}
		cfg.Widgets = append(cfg.Widgets, widget)
	}

	return cfg, nil
}

// Widget returns the widget with the given name.
func (c Config) Widget(name string) (Widget, bool) {
	for _, w := range c.Widgets {
		if w.Name == name {
			return w, true
		}
	}
	return Widget{}, false
}

func parseWidget(w WidgetTmp) (Widget, error) {
	out := Widget{
		Name:         w.Name,
		Kind:         events.Kind(w.Kind),
		Interval:     w.Interval,
		Volatility:   w.Volatility,
		SeriesLength: w.SeriesLength,
		Precision:    defaultPrecision,
		Currency:     w.Currency,
	}
	if w.Precision != nil {
		out.Precision = *w.Precision
	}
	if out.SeriesLength == 0 {
		out.SeriesLength = defaultSeriesLength
	}

	if out.Interval <= 0 {
		return Widget{}, fmt.Errorf("'interval' must be positive, got %s", out.Interval)
	}
	if out.SeriesLength < 1 {
		return Widget{}, fmt.Errorf("'series_length' must be at least 1, got %d", out.SeriesLength)
	}

	switch out.Kind {
	case events.KindMarket:
		return parseMarket(out, w)
	case events.KindClock:
		loc, err := time.LoadLocation(w.Timezone)
		if err != nil {
			return Widget{}, fmt.Errorf("incorrect 'timezone' param: %w", err)
		}
		out.Location = loc
		return out, nil
	case events.KindThreatLog:
		return parseThreatLog(out, w)
	default:
		return Widget{}, fmt.Errorf("unknown widget kind %q", w.Kind)
	}
}

func parseMarket(out Widget, w WidgetTmp) (Widget, error) {
	if !(out.Volatility >= 0 && out.Volatility < 1) {
		return Widget{}, fmt.Errorf("'volatility' %v: %w", out.Volatility, pricer.ErrInvalidVolatility)
	}
	if out.Precision < 0 {
		return Widget{}, fmt.Errorf("'precision' must not be negative, got %d", out.Precision)
	}

	if w.Min != "" || w.Max != "" {
		min, err := decimal.NewFromString(w.Min)
		if err != nil {
			return Widget{}, fmt.Errorf("incorrect 'min' param (must be a decimal), error: %w", err)
		}
		max, err := decimal.NewFromString(w.Max)
		if err != nil {
			return Widget{}, fmt.Errorf("incorrect 'max' param (must be a decimal), error: %w", err)
		}
		if !min.IsPositive() || min.GreaterThan(max) {
			return Widget{}, fmt.Errorf("min=%s max=%s: %w", min, max, pricer.ErrInvalidBounds)
		}
		out.Bounded, out.Min, out.Max = true, min, max
	}

	if len(w.Instruments) == 0 {
		return Widget{}, fmt.Errorf("market widget needs at least one instrument")
	}

	for _, in := range w.Instruments {
		h, err := parseHolding(in)
		if err != nil {
			return Widget{}, fmt.Errorf("instrument %q: %w", in.Symbol, err)
		}
		out.Holdings = append(out.Holdings, h)
	}

	return out, nil
}

func parseHolding(in InstrumentTmp) (market.Holding, error) {
	price, err := decimal.NewFromString(in.Price)
	if err != nil {
		return market.Holding{}, fmt.Errorf("incorrect 'price' param (must be a decimal), error: %w", err)
	}
	if !price.IsPositive() {
		return market.Holding{}, fmt.Errorf("'price' must be positive, got %s", price)
	}

	quantity := decimal.Zero
	if in.Quantity != "" {
		quantity, err = decimal.NewFromString(in.Quantity)
		if err != nil {
			return market.Holding{}, fmt.Errorf("incorrect 'quantity' param (must be a decimal), error: %w", err)
		}
	}
	if quantity.IsNegative() {
		return market.Holding{}, fmt.Errorf("'quantity' must not be negative, got %s", quantity)
	}

	pct := decimal.Zero
	if in.DayChangePercent != "" {
		pct, err = decimal.NewFromString(in.DayChangePercent)
		if err != nil {
			return market.Holding{}, fmt.Errorf("incorrect 'day_change_percent' param (must be a decimal), error: %w", err)
		}
	}

	history := make([]decimal.Decimal, 0, len(in.History))
	for _, s := range in.History {
		p, err := decimal.NewFromString(s)
		if err != nil {
			return market.Holding{}, fmt.Errorf("incorrect 'history' entry %q, error: %w", s, err)
		}
		history = append(history, p)
	}

	return market.Holding{
		Symbol:           in.Symbol,
		Name:             in.Name,
		Price:            price,
		Quantity:         quantity,
		DayChangePercent: pct,
		History:          history,
	}, nil
}

func parseThreatLog(out Widget, w WidgetTmp) (Widget, error) {
	if len(w.Threats) == 0 {
		return Widget{}, fmt.Errorf("threat log widget needs at least one threat template")
	}

	for _, t := range w.Threats {
		sev := domain.Severity(t.Severity)
		switch sev {
		case domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh, domain.SeverityCritical:
		default:
			return Widget{}, fmt.Errorf("unknown threat severity %q", t.Severity)
		}
		out.Threats = append(out.Threats, threatlog.Template{
			Severity: sev,
			Source:   t.Source,
			Message:  t.Message,
		})
	}

	return out, nil
}
