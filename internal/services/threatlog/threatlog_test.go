package threatlog

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/tickboard/internal/domain"
)

func TestGenerator_Step(t *testing.T) {
	g, err := NewGenerator(rand.New(rand.NewSource(1)), []Template{
		{Severity: domain.SeverityHigh, Source: "waf", Message: "blocked SQL injection attempt"},
		{Severity: domain.SeverityMedium, Source: "auth", Message: "repeated failed logins"},
	})
	require.NoError(t, err)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	log, err := g.Seed(start, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, log.Len())

	for i := 1; i <= 6; i++ {
		log, err = g.Step(log, start.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		require.Equal(t, 4, log.Len())
	}

	latest, err := log.Latest()
	require.NoError(t, err)
	assert.Equal(t, start.Add(6*time.Second), latest.At)
	assert.Contains(t, []string{"waf", "auth"}, latest.Source)

	ids := map[string]bool{}
	for _, ev := range log.Values() {
		assert.NotEmpty(t, ev.ID)
		ids[ev.ID] = true
	}
	assert.Len(t, ids, 4)
}

func TestNewGenerator_Invalid(t *testing.T) {
	_, err := NewGenerator(rand.New(rand.NewSource(1)), nil)
	assert.Error(t, err)
	_, err = NewGenerator(nil, []Template{{Message: "x"}})
	assert.Error(t, err)
}
