// Package indicators computes technical indicators (EMA, RSI) over a price window.
package indicators

import (
	"fmt"
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"
)

// Summary latest indicator values of a price window.
type Summary struct {
	// EMA latest exponential moving average over the whole window.
	EMA decimal.Decimal
	// RSI latest relative strength index, valid when HasRSI is set.
	RSI    decimal.Decimal
	HasRSI bool
}

// Summarize computes the latest EMA over the window and, when the window is
// long enough and not flat, the latest RSI with the given period.
func Summarize(closes []decimal.Decimal, rsiPeriod int) (Summary, error) {
	if len(closes) == 0 {
		return Summary{}, fmt.Errorf("not enough data points: need 1, got 0")
	}

	ema, err := CalculateEMA(closes, len(closes))
	if err != nil {
		return Summary{}, err
	}

	var s Summary
	if len(ema) > 0 {
		s.EMA = ema[len(ema)-1]
	} else {
		s.EMA = closes[len(closes)-1]
	}

	if rsiPeriod > 0 && len(closes) >= rsiPeriod+1 {
		rsi, err := CalculateRSI(closes, rsiPeriod)
		if err != nil {
			return Summary{}, err
		}
		if len(rsi) > 0 {
			s.RSI = rsi[len(rsi)-1]
			s.HasRSI = true
		}
	}

	return s, nil
}

// CalculateEMA calculates the Exponential Moving Average for the given period.
func CalculateEMA(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if period < 1 {
		return nil, fmt.Errorf("invalid EMA period %d", period)
	}
	if len(closes) < period {
		return nil, fmt.Errorf("not enough data points: need %d, got %d", period, len(closes))
	}

	closesFloat := decimalsToFloat64(closes)

	ema := trend.NewEmaWithPeriod[float64](period)
	inputChan := helper.SliceToChan(closesFloat)
	outputChan := ema.Compute(inputChan)
	emaFloat := helper.ChanToSlice(outputChan)

	return float64ToDecimals(emaFloat), nil
}

// CalculateRSI calculates the Relative Strength Index for the given period.
// Undefined values of a flat window are skipped.
func CalculateRSI(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if len(closes) < period+1 {
		return nil, fmt.Errorf("not enough data points for RSI: need %d, got %d", period+1, len(closes))
	}

	closesFloat := decimalsToFloat64(closes)

	rsi := momentum.NewRsiWithPeriod[float64](period)
	inputChan := helper.SliceToChan(closesFloat)
	outputChan := rsi.Compute(inputChan)
	rsiFloat := helper.ChanToSlice(outputChan)

	return float64ToDecimals(rsiFloat), nil
}

// decimalsToFloat64 converts a slice of decimal.Decimal to []float64.
func decimalsToFloat64(decimals []decimal.Decimal) []float64 {
	result := make([]float64, len(decimals))
	for i, d := range decimals {
		result[i], _ = d.Float64()
	}
	return result
}

// float64ToDecimals converts finite floats to decimals, dropping NaN and Inf.
func float64ToDecimals(floats []float64) []decimal.Decimal {
	result := make([]decimal.Decimal, 0, len(floats))
	for _, f := range floats {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		result = append(result, decimal.NewFromFloat(f))
	}
	return result
}
