package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instrument(t *testing.T, symbol string, price, qty int64) Instrument {
	t.Helper()
	series, err := Seed(decimal.NewFromInt(price), 3)
	require.NoError(t, err)
	return Instrument{
		Symbol:   symbol,
		Name:     symbol,
		Price:    decimal.NewFromInt(price),
		Quantity: decimal.NewFromInt(qty),
		Series:   series,
	}
}

func TestNewSnapshot(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s, err := NewSnapshot(at, []Instrument{
		instrument(t, "ETH", 2000, 2),
		instrument(t, "BTC", 50000, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, at, s.At())
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"ETH", "BTC"}, s.Symbols())

	eth, ok := s.Get("ETH")
	require.True(t, ok)
	assert.True(t, eth.Value().Equal(decimal.NewFromInt(4000)))

	_, ok = s.Get("DOGE")
	assert.False(t, ok)
}

func TestNewSnapshot_DuplicateSymbol(t *testing.T) {
	_, err := NewSnapshot(time.Now(), []Instrument{
		instrument(t, "BTC", 1, 1),
		instrument(t, "BTC", 2, 1),
	})
	assert.ErrorIs(t, err, ErrDuplicateSymbol)
}

func TestSnapshot_AccessorsReturnCopies(t *testing.T) {
	s, err := NewSnapshot(time.Now(), []Instrument{instrument(t, "BTC", 10, 1)})
	require.NoError(t, err)

	ins := s.Instruments()
	ins[0].Price = decimal.NewFromInt(999)
	symbols := s.Symbols()
	symbols[0] = "XXX"

	btc, ok := s.Get("BTC")
	require.True(t, ok)
	assert.True(t, btc.Price.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, []string{"BTC"}, s.Symbols())
}

func TestInstrument_Validate(t *testing.T) {
	ok := instrument(t, "BTC", 10, 1)
	assert.NoError(t, ok.Validate())

	zeroPrice := ok
	zeroPrice.Price = decimal.Zero
	assert.Error(t, zeroPrice.Validate())

	negativeQty := ok
	negativeQty.Quantity = decimal.NewFromInt(-1)
	assert.Error(t, negativeQty.Validate())

	noSymbol := ok
	noSymbol.Symbol = ""
	assert.Error(t, noSymbol.Validate())
}

func TestDirection_Text(t *testing.T) {
	for _, d := range []Direction{Unchanged, Increased, Decreased} {
		text, err := d.MarshalText()
		require.NoError(t, err)

		var decoded Direction
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, d, decoded)
	}

	var d Direction
	assert.Error(t, d.UnmarshalText([]byte("sideways")))
}
