// Package market advances a widget's instruments by one simulated tick.
package market

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tickboard/internal/domain"
	"github.com/vadiminshakov/tickboard/internal/services/pricer"
)

// percentPlaces keeps re-anchored percentages stable when the price does not move.
const percentPlaces = 6

var hundred = decimal.NewFromInt(100)

// Holding fixture entry an instrument is seeded from.
type Holding struct {
	Symbol           string
	Name             string
	Price            decimal.Decimal
	Quantity         decimal.Decimal
	DayChangePercent decimal.Decimal
	// History optional past prices, oldest first. Price is appended as the newest entry.
	History []decimal.Decimal
}

// Seed builds the initial snapshot. Every series gets exactly seriesLength entries.
func Seed(at time.Time, holdings []Holding, seriesLength int, precision int32) (domain.Snapshot, error) {
	instruments := make([]domain.Instrument, 0, len(holdings))

	for _, h := range holdings {
		price := h.Price.Round(precision)

		history := make([]decimal.Decimal, 0, len(h.History)+1)
		for _, p := range h.History {
			history = append(history, p.Round(precision))
		}
		history = append(history, price)

		series, err := domain.SeedFrom(history, seriesLength)
		if err != nil {
			return domain.Snapshot{}, errors.Wrapf(err, "seed series for %s", h.Symbol)
		}

		in := domain.Instrument{
			Symbol:           h.Symbol,
			Name:             h.Name,
			Price:            price,
			Quantity:         h.Quantity,
			DayChangePercent: h.DayChangePercent,
			Series:           series,
		}
		if err := in.Validate(); err != nil {
			return domain.Snapshot{}, err
		}

		instruments = append(instruments, in)
	}

	return domain.NewSnapshot(at, instruments)
}

// Feed moves every instrument of a snapshot with its pricer. The stored
// day-change percentage of each instrument is re-anchored to the session
// open implied by the seeded percentage.
type Feed struct {
	pricer pricer.Pricer
	opens  map[string]decimal.Decimal
}

// NewFeed creates a feed for the instruments of the seeded snapshot.
func NewFeed(p pricer.Pricer, seeded domain.Snapshot) *Feed {
	opens := make(map[string]decimal.Decimal, seeded.Len())
	for _, in := range seeded.Instruments() {
		opens[in.Symbol] = sessionOpen(in.Price, in.DayChangePercent)
	}

	return &Feed{pricer: p, opens: opens}
}

// Step computes the snapshot for the tick at now. prev is never modified.
func (f *Feed) Step(prev domain.Snapshot, now time.Time) (domain.Snapshot, error) {
	instruments := prev.Instruments()

	for i, in := range instruments {
		if in.Series.Len() == 0 {
			return domain.Snapshot{}, errors.Wrapf(domain.ErrEmptySeries, "series of %s", in.Symbol)
		}

		price, err := f.pricer.Next(in.Price)
		if err != nil {
			return domain.Snapshot{}, errors.Wrapf(err, "next price for %s", in.Symbol)
		}

		in.Price = price
		in.Series = in.Series.Append(price)
		if open, ok := f.opens[in.Symbol]; ok && open.IsPositive() {
			in.DayChangePercent = price.Sub(open).Div(open).Mul(hundred).Round(percentPlaces)
		}
		instruments[i] = in
	}

	return domain.NewSnapshot(now, instruments)
}

func sessionOpen(price, pct decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(pct.Div(hundred))
	if !factor.IsPositive() {
		return price
	}
	return price.Div(factor)
}
