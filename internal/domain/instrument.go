// Package domain defines core data structures shared by the simulation engine and its renderers.
package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Instrument a tracked asset at one tick boundary.
type Instrument struct {
	// Symbol unique identity within a widget, e.g. BTC.
	Symbol string
	// Name display name.
	Name string
	// Price current price, always positive.
	Price decimal.Decimal
	// Quantity amount held, never negative.
	Quantity decimal.Decimal
	// DayChangePercent stored day-change signal in percent, e.g. 2.5 for +2.5%.
	DayChangePercent decimal.Decimal
	// Series rolling price history for sparklines, newest entry equals Price.
	Series Series
}

// Value returns price multiplied by quantity.
func (i Instrument) Value() decimal.Decimal {
	return i.Price.Mul(i.Quantity)
}

// Validate checks the price and quantity invariants.
func (i Instrument) Validate() error {
	if i.Symbol == "" {
		return errors.New("instrument symbol is required")
	}
	if !i.Price.IsPositive() {
		return errors.Errorf("instrument %s: price must be positive, got %s", i.Symbol, i.Price)
	}
	if i.Quantity.IsNegative() {
		return errors.Errorf("instrument %s: quantity must not be negative, got %s", i.Symbol, i.Quantity)
	}
	return nil
}
