package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/treasury-audit/internal/fetch"
	"github.com/sells-group/treasury-audit/internal/model"
	"github.com/sells-group/treasury-audit/internal/registry"
)

func twoCompanyFixture() ([]model.Company, *registry.Registry, *stubFetcher) {
	companies := []model.Company{
		{
			Ticker: "MSTR", Name: "Strategy", Asset: "BTC",
			Metrics: []model.MetricSpec{
				{Kind: model.MetricHoldings, Value: model.MetricValue{Number: 672497, Unit: "BTC"}},
				{Kind: model.MetricSharesOutstanding, Value: model.MetricValue{Number: 100000000, Unit: "shares"}},
			},
		},
		{
			Ticker: "BMNR", Name: "Bitmine", Asset: "ETH",
			Metrics: []model.MetricSpec{
				{Kind: model.MetricHoldings, Value: model.MetricValue{Number: 300000, Unit: "ETH"}},
			},
		},
	}

	reg := registry.New(&registry.Config{
		Defaults: map[model.MetricKind][]model.SourceDescriptor{
			model.MetricHoldings: {
				{Name: "treasury_agg", Type: model.SourceAggregator, Locator: "https://agg"},
			},
			model.MetricSharesOutstanding: {
				{Name: "quote_primary", Type: model.SourceMarketData, Locator: "https://q"},
			},
		},
	})

	f := &stubFetcher{responses: map[string]fetch.Result{
		"treasury_agg": payload(`{"companies":[
			{"name":"Strategy","symbol":"NASDAQ:MSTR","total_holdings":672497},
			{"name":"Bitmine","symbol":"AMEX:BMNR","total_holdings":310000}]}`),
		"quote_primary": payload(`{"shares_outstanding":101500000,"as_of":"2026-08-29"}`),
	}}
	return companies, reg, f
}

func TestRunAll_SummaryCountsSumToRecords(t *testing.T) {
	companies, reg, f := twoCompanyFixture()
	r := newReconciler(reg, f)

	rr, err := r.RunAll(context.Background(), companies)
	require.NoError(t, err)

	total := 0
	for _, cr := range rr.Companies {
		total += len(cr.Records)
	}
	assert.Equal(t, 3, total)
	assert.Equal(t, total, rr.Summary.Counts.Total())

	// MSTR holdings match exactly; MSTR shares drift 1.5% -> warning;
	// BMNR holdings drift ~3.2% -> warning.
	assert.Equal(t, 1, rr.Summary.Counts.Match)
	assert.Equal(t, 2, rr.Summary.Counts.Warning)
	assert.Equal(t, 0, rr.Summary.Counts.Unverifiable)
	assert.False(t, rr.Summary.Incomplete)
	assert.Equal(t, 2, rr.Summary.Companies)
	assert.NotEmpty(t, rr.Summary.RunID)
}

func TestRunAll_FieldFailuresDoNotAbortTheRun(t *testing.T) {
	companies, reg, f := twoCompanyFixture()
	delete(f.responses, "quote_primary") // shares become unverifiable

	r := newReconciler(reg, f)
	rr, err := r.RunAll(context.Background(), companies)
	require.NoError(t, err)

	assert.Equal(t, 1, rr.Summary.Counts.Unverifiable)
	assert.Equal(t, 3, rr.Summary.Counts.Total())
	assert.False(t, rr.Summary.Incomplete)
}

func TestRunAll_CancelledContextMarksRunIncomplete(t *testing.T) {
	companies, reg, f := twoCompanyFixture()
	r := newReconciler(reg, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rr, err := r.RunAll(ctx, companies)
	require.NoError(t, err)
	assert.True(t, rr.Summary.Incomplete)
	assert.Equal(t, 0, rr.Summary.Counts.Total())
}

func TestRunAll_InvalidConfigAborts(t *testing.T) {
	_, reg, f := twoCompanyFixture()
	r := newReconciler(reg, f)

	rr, err := r.RunAll(context.Background(), nil)
	assert.Nil(t, rr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no companies configured")
}

func TestRunAll_SourceVisitsRecorded(t *testing.T) {
	companies, reg, f := twoCompanyFixture()
	r := newReconciler(reg, f)

	rr, err := r.RunAll(context.Background(), companies)
	require.NoError(t, err)

	require.Len(t, rr.Summary.Sources, 3)
	for _, v := range rr.Summary.Sources {
		assert.True(t, v.Usable)
		assert.False(t, v.RetrievedAt.IsZero())
	}
}
