package util

import (
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vsinha/prepcommittee/pkg/infrastructure/logging"
)

func TestClamp(t *testing.T) {
	testCases := []struct {
		name     string
		x        float64
		expected float64
	}{
		{"inside", 0.4, 0.4},
		{"below", -2, 0},
		{"above", 3, 1},
		{"nan", math.NaN(), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Clamp(tc.x, 0, 1))
		})
	}
}

func TestSumAndMax(t *testing.T) {
	values := []float64{0.1, 0.9, 0.2}
	assert.InDelta(t, 1.2, SumBy(values, func(v float64) float64 { return v }), 1e-9)
	assert.Equal(t, 0.9, MaxBy(values, func(v float64) float64 { return v }))
	assert.Equal(t, 0.0, MaxBy([]float64{}, func(v float64) float64 { return v }))

	costs := []decimal.Decimal{decimal.NewFromInt(2), decimal.RequireFromString("0.5")}
	total := SumDecimalBy(costs, func(d decimal.Decimal) decimal.Decimal { return d })
	assert.True(t, total.Equal(decimal.RequireFromString("2.5")))
}

func TestSanitizeFloat_LogsWarning(t *testing.T) {
	rec := logging.NewRecorder()

	assert.Equal(t, 0.08, SanitizeFloat(rec, "risk", math.NaN(), 0.08, 0, 1))
	assert.Equal(t, 1.0, SanitizeFloat(rec, "risk", 4, 0.08, 0, 1))
	assert.Equal(t, 0.5, SanitizeFloat(rec, "risk", 0.5, 0.08, 0, 1))
	assert.Equal(t, 2, rec.Count(slog.LevelWarn))

	assert.True(t, NonNegative(rec, "qty", decimal.NewFromInt(-3)).IsZero())
	assert.Equal(t, 3, rec.Count(slog.LevelWarn))
}

func TestIDGenerator_Monotonic(t *testing.T) {
	g := NewIDGenerator()
	assert.Equal(t, "po-0001", g.UniqueID("po"))
	assert.Equal(t, "task-0002", g.UniqueID("task"))
}

func TestISONow(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-01T09:30:00Z", ISONow(FixedClock(at)))
}

func TestScopedIDs(t *testing.T) {
	ids := ScopedIDs{Scope: "it2", Base: NewIDGenerator()}
	assert.Equal(t, "it2-proposal-0001", ids.UniqueID("proposal"))
	assert.Equal(t, "it2-po-0002", ids.UniqueID("po"))
}
