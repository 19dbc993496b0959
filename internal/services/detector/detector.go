// Package detector classifies value changes between ticks and keeps the
// short-lived flash state they drive.
package detector

import (
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tickboard/internal/domain"
)

// Classify compares current with previous.
func Classify(previous, current decimal.Decimal) domain.Direction {
	switch current.Cmp(previous) {
	case 1:
		return domain.Increased
	case -1:
		return domain.Decreased
	default:
		return domain.Unchanged
	}
}
