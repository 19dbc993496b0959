// Package pricer generates simulated price movements.
package pricer

import (
	"github.com/shopspring/decimal"
)

// Pricer produces the next simulated price from the current one.
type Pricer interface {
	Next(price decimal.Decimal) (decimal.Decimal, error)
}
