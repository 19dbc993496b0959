// Package portfolio derives portfolio-level totals from a snapshot.
package portfolio

import (
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tickboard/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Totals portfolio figures derived from one snapshot. Never stored on its own.
type Totals struct {
	// Count number of instruments aggregated.
	Count int
	// Value sum of instrument values.
	Value decimal.Decimal
	// DayChange absolute change since the day open implied by stored percentages.
	DayChange decimal.Decimal
	// DayChangePercent DayChange relative to the implied open value, in percent.
	DayChangePercent decimal.Decimal
}

// Aggregate recomputes totals from scratch. The result does not depend on
// instrument order: decimal addition is exact and each term depends only
// on its own instrument.
func Aggregate(s domain.Snapshot) Totals {
	return AggregateInstruments(s.Instruments())
}

// AggregateInstruments is Aggregate over a plain instrument list.
func AggregateInstruments(instruments []domain.Instrument) Totals {
	totals := Totals{
		Count:            len(instruments),
		Value:            decimal.Zero,
		DayChange:        decimal.Zero,
		DayChangePercent: decimal.Zero,
	}

	for _, in := range instruments {
		value := in.Value()
		totals.Value = totals.Value.Add(value)
		totals.DayChange = totals.DayChange.Add(DayChange(value, in.DayChangePercent))
	}

	base := totals.Value.Sub(totals.DayChange)
	if base.IsPositive() {
		totals.DayChangePercent = totals.DayChange.Div(base).Mul(hundred)
	}

	return totals
}

// DayChange reverses a day-change percentage applied to value:
// value - value / (1 + pct/100). A percentage of -100 or below has no
// positive open value and yields zero.
func DayChange(value, pct decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(pct.Div(hundred))
	if !factor.IsPositive() {
		return decimal.Zero
	}
	return value.Sub(value.Div(factor))
}
