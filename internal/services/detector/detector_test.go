package detector

import (
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/tickboard/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		previous string
		current  string
		expected domain.Direction
	}{
		{name: "up", previous: "100", current: "100.01", expected: domain.Increased},
		{name: "down", previous: "100", current: "99.99", expected: domain.Decreased},
		{name: "equal", previous: "100", current: "100", expected: domain.Unchanged},
		{name: "equal with different scale", previous: "100.00", current: "100", expected: domain.Unchanged},
		{name: "negative values", previous: "-5", current: "-6", expected: domain.Decreased},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(decimal.RequireFromString(tt.previous), decimal.RequireFromString(tt.current))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestClassify_IsTotal(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		a := decimal.NewFromFloat((r.Float64() - 0.5) * math.Pow(10, float64(r.Intn(8))))
		b := decimal.NewFromFloat((r.Float64() - 0.5) * math.Pow(10, float64(r.Intn(8))))

		got := Classify(a, b)
		switch {
		case b.GreaterThan(a):
			require.Equal(t, domain.Increased, got)
		case b.LessThan(a):
			require.Equal(t, domain.Decreased, got)
		default:
			require.Equal(t, domain.Unchanged, got)
		}
		require.Equal(t, domain.Unchanged, Classify(a, a))
	}
}

func TestFlasher_ExpiresToNeutral(t *testing.T) {
	f := NewFlasher(20 * time.Millisecond)
	defer f.Close()

	require.True(t, f.Trigger("BTC.price", domain.Increased))
	assert.Equal(t, domain.Increased, f.State("BTC.price"))
	assert.Equal(t, domain.Unchanged, f.State("ETH.price"))

	assert.Eventually(t, func() bool {
		return f.State("BTC.price") == domain.Unchanged
	}, time.Second, 2*time.Millisecond)
	assert.Empty(t, f.Active())
}

func TestFlasher_RetriggerRestartsTimerWithoutStacking(t *testing.T) {
	var mu sync.Mutex
	var expired []string
	f := NewFlasher(150*time.Millisecond, WithOnExpire(func(field string) {
		mu.Lock()
		expired = append(expired, field)
		mu.Unlock()
	}))
	defer f.Close()

	f.Trigger("total", domain.Increased)
	time.Sleep(100 * time.Millisecond)
	f.Trigger("total", domain.Decreased)
	time.Sleep(100 * time.Millisecond)

	// the first timer would have fired by now; the restarted one keeps the flash
	assert.Equal(t, domain.Decreased, f.State("total"))

	assert.Eventually(t, func() bool {
		return f.State("total") == domain.Unchanged
	}, time.Second, 2*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"total"}, expired)
}

func TestFlasher_UnchangedDoesNotFlash(t *testing.T) {
	f := NewFlasher(time.Hour)
	defer f.Close()

	assert.False(t, f.Trigger("BTC.price", domain.Unchanged))
	assert.Equal(t, domain.Unchanged, f.State("BTC.price"))

	f.Trigger("BTC.price", domain.Decreased)
	assert.False(t, f.Trigger("BTC.price", domain.Unchanged))
	assert.Equal(t, domain.Decreased, f.State("BTC.price"))
}

func TestFlasher_CloseCancelsPending(t *testing.T) {
	called := make(chan string, 1)
	f := NewFlasher(10*time.Millisecond, WithOnExpire(func(field string) {
		called <- field
	}))

	f.Trigger("BTC.value", domain.Increased)
	f.Close()

	assert.Equal(t, domain.Unchanged, f.State("BTC.value"))
	assert.False(t, f.Trigger("BTC.value", domain.Increased))

	select {
	case field := <-called:
		t.Fatalf("unexpected expiry of %s after close", field)
	case <-time.After(40 * time.Millisecond):
	}
}

func TestFlasher_StaleTimerIgnored(t *testing.T) {
	f := NewFlasher(time.Hour)
	defer f.Close()

	f.Trigger("fx", domain.Increased)
	f.mu.Lock()
	staleToken := f.flashes["fx"].token
	f.mu.Unlock()

	f.Trigger("fx", domain.Decreased)
	f.expire("fx", staleToken)

	assert.Equal(t, domain.Decreased, f.State("fx"))
}

func TestNewFlasher_DefaultDuration(t *testing.T) {
	assert.Equal(t, DefaultFlashDuration, NewFlasher(0).Duration())
}
