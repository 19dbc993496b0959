// Package view binds widget frames to renderable boards. Everything a
// surface draws is read from the latest frame and the active flashes.
package view

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tickboard/internal/domain"
	"github.com/vadiminshakov/tickboard/internal/services/detector"
	"github.com/vadiminshakov/tickboard/internal/services/portfolio"
	"github.com/vadiminshakov/tickboard/internal/services/ticker"
	"github.com/vadiminshakov/tickboard/pkg/indicators"
)

const rsiPeriod = 5

// Field keys of flash states.
const (
	FieldTotalValue     = "total.value"
	FieldTotalDayChange = "total.day_change"
)

// PriceField returns the flash key of an instrument's price.
func PriceField(symbol string) string { return symbol + ".price" }

// ValueField returns the flash key of an instrument's value.
func ValueField(symbol string) string { return symbol + ".value" }

// Row one instrument line of a market board.
type Row struct {
	Symbol           string           `json:"symbol"`
	Name             string           `json:"name"`
	Price            string           `json:"price"`
	Quantity         string           `json:"quantity"`
	Value            string           `json:"value"`
	DayChangePercent string           `json:"day_change_percent"`
	PriceFlash       domain.Direction `json:"price_flash"`
	ValueFlash       domain.Direction `json:"value_flash"`
	Sparkline        string           `json:"sparkline"`
	Series           []string         `json:"series"`
	EMA              string           `json:"ema"`
	RSI              string           `json:"rsi,omitempty"`
}

// TotalsView aggregated portfolio figures of a market board.
type TotalsView struct {
	Value            string           `json:"value"`
	DayChange        string           `json:"day_change"`
	DayChangePercent string           `json:"day_change_percent"`
	ValueFlash       domain.Direction `json:"value_flash"`
	DayChangeFlash   domain.Direction `json:"day_change_flash"`
}

// Board rendered market widget.
type Board struct {
	Widget string     `json:"widget"`
	Seq    uint64     `json:"seq"`
	At     time.Time  `json:"ts"`
	Rows   []Row      `json:"rows"`
	Totals TotalsView `json:"totals"`
	// TotalValue raw aggregated value for metrics.
	TotalValue decimal.Decimal `json:"-"`
}

// Diff classifies every displayed field of the frame against its previous slot.
// Instruments missing from the previous snapshot count as unchanged.
func Diff(frame ticker.Frame[domain.Snapshot]) map[string]domain.Direction {
	changes := make(map[string]domain.Direction, frame.Current.Len()*2+2)

	for _, cur := range frame.Current.Instruments() {
		prev, ok := frame.Previous.Get(cur.Symbol)
		if !ok {
			changes[PriceField(cur.Symbol)] = domain.Unchanged
			changes[ValueField(cur.Symbol)] = domain.Unchanged
			continue
		}
		changes[PriceField(cur.Symbol)] = detector.Classify(prev.Price, cur.Price)
		changes[ValueField(cur.Symbol)] = detector.Classify(prev.Value(), cur.Value())
	}

	curTotals := portfolio.Aggregate(frame.Current)
	prevTotals := portfolio.Aggregate(frame.Previous)
	changes[FieldTotalValue] = detector.Classify(prevTotals.Value, curTotals.Value)
	changes[FieldTotalDayChange] = detector.Classify(prevTotals.DayChange, curTotals.DayChange)

	return changes
}

// Render builds the board of a market frame with the given active flashes.
func Render(widget string, frame ticker.Frame[domain.Snapshot], flashes map[string]domain.Direction, f Format) Board {
	instruments := frame.Current.Instruments()
	totals := portfolio.Aggregate(frame.Current)

	board := Board{
		Widget:     widget,
		Seq:        frame.Seq,
		At:         frame.At,
		Rows:       make([]Row, 0, len(instruments)),
		TotalValue: totals.Value,
		Totals: TotalsView{
			Value:            f.Amount(totals.Value),
			DayChange:        f.SignedAmount(totals.DayChange),
			DayChangePercent: Percent(totals.DayChangePercent),
			ValueFlash:       flashes[FieldTotalValue],
			DayChangeFlash:   flashes[FieldTotalDayChange],
		},
	}

	for _, in := range instruments {
		board.Rows = append(board.Rows, renderRow(in, flashes, f))
	}

	return board
}

func renderRow(in domain.Instrument, flashes map[string]domain.Direction, f Format) Row {
	values := in.Series.Values()
	series := make([]string, len(values))
	for i, v := range values {
		series[i] = v.StringFixed(f.Precision)
	}

	row := Row{
		Symbol:           in.Symbol,
		Name:             in.Name,
		Price:            f.Amount(in.Price),
		Quantity:         in.Quantity.String(),
		Value:            f.Amount(in.Value()),
		DayChangePercent: Percent(in.DayChangePercent),
		PriceFlash:       flashes[PriceField(in.Symbol)],
		ValueFlash:       flashes[ValueField(in.Symbol)],
		Sparkline:        Sparkline(values),
		Series:           series,
		EMA:              f.Amount(in.Price),
	}

	if summary, err := indicators.Summarize(values, rsiPeriod); err == nil {
		row.EMA = f.Amount(summary.EMA)
		if summary.HasRSI {
			row.RSI = summary.RSI.StringFixed(1)
		}
	}

	return row
}
