package staleness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/treasury-audit/internal/model"
)

var runTime = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return runTime.AddDate(0, 0, -n)
}

func TestEvaluate_Boundaries(t *testing.T) {
	tests := []struct {
		name    string
		asOf    time.Time
		want    model.Freshness
		wantAge int
	}{
		{"same day", runTime, model.FreshnessFresh, 0},
		{"29 days", daysAgo(29), model.FreshnessFresh, 29},
		{"exactly 30 days", daysAgo(30), model.FreshnessFresh, 30},
		{"31 days", daysAgo(31), model.FreshnessStale, 31},
		{"40 days", daysAgo(40), model.FreshnessStale, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.asOf, runTime, 30)
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, tt.wantAge, got.AgeDays)
		})
	}
}

func TestEvaluate_FutureAsOfClampsToZero(t *testing.T) {
	got := Evaluate(runTime.AddDate(0, 0, 2), runTime, 30)
	assert.Equal(t, model.FreshnessFresh, got.Status)
	assert.Equal(t, 0, got.AgeDays)
}

func TestEvaluate_ZeroWindowFallsBackToDefault(t *testing.T) {
	got := Evaluate(daysAgo(31), runTime, 0)
	assert.Equal(t, model.FreshnessStale, got.Status)
}

func TestPolicy_MaxAge(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 30, p.MaxAge(model.MetricHoldings))
	assert.Equal(t, 90, p.MaxAge(model.MetricBurnRate))
	assert.Equal(t, 1, p.MaxAge(model.MetricMarketCap))
	// No per-kind entry: default window.
	assert.Equal(t, 30, p.MaxAge(model.MetricStakingAPY))

	empty := Policy{}
	assert.Equal(t, DefaultMaxAgeDays, empty.MaxAge(model.MetricHoldings))
}
