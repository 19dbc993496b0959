package pricer

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const defaultPrecision int32 = 8

var (
	// ErrInvalidVolatility is returned for a volatility outside [0, 1).
	ErrInvalidVolatility = errors.New("volatility must be in [0, 1)")
	// ErrInvalidBounds is returned for bounds that are not positive or not ordered.
	ErrInvalidBounds = errors.New("bounds must satisfy 0 < min <= max")
	// ErrNonPositivePrice is returned when the walk is asked to move a non-positive price.
	ErrNonPositivePrice = errors.New("price must be positive")
)

// Source random number source, *rand.Rand satisfies it.
type Source interface {
	// Float64 returns a number in [0, 1).
	Float64() float64
}

// RandomWalk moves a price by a uniform fraction drawn from [-volatility, +volatility].
// It is not safe for concurrent use when the source is not.
type RandomWalk struct {
	volatility float64
	precision  int32
	min, max   decimal.Decimal
	bounded    bool
	src        Source
}

// Option configures the RandomWalk.
type Option func(*RandomWalk)

// WithBounds clamps every generated price to [min, max].
func WithBounds(min, max decimal.Decimal) Option {
	return func(w *RandomWalk) {
		w.min = min
		w.max = max
		w.bounded = true
	}
}

// WithPrecision sets the number of decimal places kept, 0 for integer prices.
func WithPrecision(places int32) Option {
	return func(w *RandomWalk) {
		w.precision = places
	}
}

// NewRandomWalk creates a random walk pricer. Volatility is a fraction, 0.002 means 0.2%.
func NewRandomWalk(volatility float64, src Source, opts ...Option) (*RandomWalk, error) {
	if !(volatility >= 0 && volatility < 1) {
		return nil, errors.Wrapf(ErrInvalidVolatility, "got %v", volatility)
	}
	if src == nil {
		return nil, errors.New("random source is required")
	}

	w := &RandomWalk{
		volatility: volatility,
		precision:  defaultPrecision,
		src:        src,
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.precision < 0 {
		return nil, errors.Errorf("precision must not be negative, got %d", w.precision)
	}
	if w.bounded && (!w.min.IsPositive() || w.min.GreaterThan(w.max)) {
		return nil, errors.Wrapf(ErrInvalidBounds, "min=%s max=%s", w.min, w.max)
	}

	return w, nil
}

// Volatility returns the configured volatility fraction.
func (w *RandomWalk) Volatility() float64 {
	return w.volatility
}

// Next returns price * (1 + u) with u uniform in [-volatility, +volatility],
// rounded to the nearest step of the precision and kept within
// [p(1-v), p(1+v)]. When that band holds no step other than the price itself,
// as for small integer prices, a nonzero draw moves one step in its direction
// so the price never freezes. The result is never non-positive.
func (w *RandomWalk) Next(price decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Decimal{}, errors.Wrapf(ErrNonPositivePrice, "got %s", price)
	}

	next := price
	if w.volatility > 0 {
		u := (w.src.Float64()*2 - 1) * w.volatility
		next = w.quantize(price, u)
	}

	if w.bounded {
		next = clamp(next, w.min, w.max)
	}

	return next, nil
}

func (w *RandomWalk) quantize(price decimal.Decimal, u float64) decimal.Decimal {
	one := decimal.NewFromInt(1)
	vol := decimal.NewFromFloat(w.volatility)
	lo := price.Mul(one.Sub(vol)).RoundCeil(w.precision)
	hi := price.Mul(one.Add(vol)).Truncate(w.precision)

	if lo.LessThan(hi) {
		raw := price.Mul(one.Add(decimal.NewFromFloat(u)))
		return clamp(raw.Round(w.precision), lo, hi)
	}

	// band narrower than one step
	step := decimal.New(1, -w.precision)
	base := price.Round(w.precision)
	switch {
	case u > 0:
		return base.Add(step)
	case u < 0 && base.GreaterThan(step):
		return base.Sub(step)
	case base.IsPositive():
		return base
	default:
		return price
	}
}

func clamp(v, min, max decimal.Decimal) decimal.Decimal {
	if v.LessThan(min) {
		return min
	}
	if v.GreaterThan(max) {
		return max
	}
	return v
}
