package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/treasury-audit/internal/fetch"
	"github.com/sells-group/treasury-audit/internal/model"
)

func payloadResult(body string) fetch.Result {
	return fetch.Result{
		Payload:     []byte(body),
		RetrievedAt: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
		URL:         "https://source.example/data",
	}
}

func TestExtract_UnavailableResult(t *testing.T) {
	res := fetch.NotAvailable("https://x", fetch.ReasonNotFound, "http 404")
	_, err := Extract(res, model.SourceDescriptor{Type: model.SourceFiling},
		model.MetricSpec{Kind: model.MetricHoldings}, model.Company{})

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, ReasonUnavailable, f.Reason)
}

func TestExtract_CompanyFacts_Shares(t *testing.T) {
	body := `{"facts":{"dei":{"EntityCommonStockSharesOutstanding":{"units":{"shares":[
		{"end":"2026-03-31","val":95000000,"form":"10-Q","filed":"2026-04-30"},
		{"end":"2026-06-30","val":100000000,"form":"10-Q","filed":"2026-07-15"}
	]}}}}}`
	spec := model.MetricSpec{Kind: model.MetricSharesOutstanding, Value: model.MetricValue{Number: 1e8, Unit: "shares"}}

	ev, err := Extract(payloadResult(body), model.SourceDescriptor{Name: "sec_edgar_facts", Type: model.SourceFiling}, spec, model.Company{})
	require.NoError(t, err)
	assert.Equal(t, float64(100000000), ev.Value.Number)
	assert.Equal(t, model.Unit("shares"), ev.Value.Unit)
	assert.Equal(t, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), ev.AsOf)
	assert.Equal(t, "10-Q filed 2026-07-15", ev.Citation)
	assert.Equal(t, "sec_edgar_facts", ev.Source)
}

func TestExtract_CompanyFacts_BurnRateAnnualized(t *testing.T) {
	body := `{"facts":{"us-gaap":{"OperatingExpenses":{"units":{"USD":[
		{"end":"2026-06-30","val":41250000,"form":"10-Q","filed":"2026-07-20","fy":2026,"fp":"Q2"}
	]}}}}}`
	spec := model.MetricSpec{Kind: model.MetricBurnRate, Value: model.MetricValue{Number: 1.7e8, Unit: "usd/yr"}}

	ev, err := Extract(payloadResult(body), model.SourceDescriptor{Name: "sec_edgar_facts", Type: model.SourceFiling}, spec, model.Company{})
	require.NoError(t, err)
	assert.Equal(t, 41250000.0*4, ev.Value.Number)
	assert.Equal(t, model.Unit("usd/yr"), ev.Value.Unit)
	assert.Contains(t, ev.Citation, "annualized")
}

func TestExtract_CompanyFacts_CryptoHoldings(t *testing.T) {
	body := `{"facts":{"us-gaap":{"CryptoAssetNumberOfUnits":{"units":{"BTC":[
		{"end":"2026-07-31","val":672497,"form":"8-K","filed":"2026-08-04"}
	]}}}}}`
	spec := model.MetricSpec{Kind: model.MetricHoldings, Value: model.MetricValue{Number: 672497, Unit: "BTC"}}

	ev, err := Extract(payloadResult(body), model.SourceDescriptor{Name: "sec_edgar_facts", Type: model.SourceFiling}, spec, model.Company{})
	require.NoError(t, err)
	assert.Equal(t, 672497.0, ev.Value.Number)
}

func TestExtract_CompanyFacts_NoConcept(t *testing.T) {
	body := `{"facts":{"us-gaap":{}}}`
	spec := model.MetricSpec{Kind: model.MetricSharesOutstanding, Value: model.MetricValue{Unit: "shares"}}

	_, err := Extract(payloadResult(body), model.SourceDescriptor{Type: model.SourceFiling}, spec, model.Company{})
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, ReasonNoValue, f.Reason)
}

func TestExtract_TreasuryListing(t *testing.T) {
	body := `{"companies":[
		{"name":"Strategy","symbol":"NASDAQ:MSTR","total_holdings":672497},
		{"name":"Marathon Digital","symbol":"NASDAQ:MARA","total_holdings":50000}
	]}`
	spec := model.MetricSpec{Kind: model.MetricHoldings, Value: model.MetricValue{Number: 672497, Unit: "BTC"}}
	desc := model.SourceDescriptor{Name: "coingecko_treasury", Type: model.SourceAggregator}

	ev, err := Extract(payloadResult(body), desc, spec, model.Company{Ticker: "MSTR", Asset: "BTC"})
	require.NoError(t, err)
	assert.Equal(t, 672497.0, ev.Value.Number)
	assert.Equal(t, model.Unit("BTC"), ev.Value.Unit)
	assert.Contains(t, ev.Citation, "Strategy")
}

func TestExtract_TreasuryListing_CompanyMissing(t *testing.T) {
	body := `{"companies":[{"name":"Other","symbol":"OTHR","total_holdings":1}]}`
	spec := model.MetricSpec{Kind: model.MetricHoldings, Value: model.MetricValue{Unit: "ETH"}}
	desc := model.SourceDescriptor{Name: "coingecko_treasury", Type: model.SourceAggregator}

	_, err := Extract(payloadResult(body), desc, spec, model.Company{Ticker: "SBET", Asset: "ETH"})
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, ReasonNoValue, f.Reason)
}

func TestExtract_StakingYield(t *testing.T) {
	body := `{"reward_rate":3.2,"updated_at":"2026-08-28T00:00:00Z"}`
	spec := model.MetricSpec{Kind: model.MetricStakingAPY, Value: model.MetricValue{Number: 3.1, Unit: "pct"}}
	desc := model.SourceDescriptor{Name: "stakingrewards", Type: model.SourceAggregator}

	ev, err := Extract(payloadResult(body), desc, spec, model.Company{Asset: "ETH"})
	require.NoError(t, err)
	assert.Equal(t, 3.2, ev.Value.Number)
	assert.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), ev.AsOf)
}

func TestExtract_Quote_Shares(t *testing.T) {
	body := `{"shares_outstanding":115000000,"as_of":"2026-08-29"}`
	spec := model.MetricSpec{Kind: model.MetricSharesOutstanding, Value: model.MetricValue{Number: 1e8, Unit: "shares"}}
	desc := model.SourceDescriptor{Name: "quote_secondary", Type: model.SourceMarketDataSecondary}

	ev, err := Extract(payloadResult(body), desc, spec, model.Company{})
	require.NoError(t, err)
	assert.Equal(t, 115000000.0, ev.Value.Number)
}

func TestExtract_Quote_MarketCap(t *testing.T) {
	body := `{"market_cap":4200000000,"as_of":"2026-08-29"}`
	spec := model.MetricSpec{Kind: model.MetricMarketCap, Value: model.MetricValue{Number: 4.1e9, Unit: "usd"}}
	desc := model.SourceDescriptor{Name: "quote_primary", Type: model.SourceMarketData}

	ev, err := Extract(payloadResult(body), desc, spec, model.Company{})
	require.NoError(t, err)
	assert.Equal(t, 4.2e9, ev.Value.Number)
	assert.Equal(t, model.Unit("usd"), ev.Value.Unit)
}

func TestExtract_UnitMismatch(t *testing.T) {
	// Quote supplies shares; spec is configured in dollars. Must fail,
	// never coerce.
	body := `{"shares_outstanding":115000000}`
	spec := model.MetricSpec{Kind: model.MetricSharesOutstanding, Value: model.MetricValue{Number: 1e8, Unit: "usd"}}
	desc := model.SourceDescriptor{Name: "quote_primary", Type: model.SourceMarketData}

	_, err := Extract(payloadResult(body), desc, spec, model.Company{})
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, ReasonUnitMismatch, f.Reason)
}

func TestExtract_DisclosurePage(t *testing.T) {
	body := `<html><body>Strategy has acquired a total of 672,497 BTC as of August 2026.</body></html>`
	spec := model.MetricSpec{Kind: model.MetricHoldings, Value: model.MetricValue{Number: 672497, Unit: "BTC"}}
	desc := model.SourceDescriptor{Name: "strategy_purchases", Type: model.SourceOfficialDisclosure}

	ev, err := Extract(payloadResult(body), desc, spec, model.Company{Ticker: "MSTR"})
	require.NoError(t, err)
	assert.Equal(t, 672497.0, ev.Value.Number)
	// No as-of on the page; retrieval time is the bound.
	assert.Equal(t, time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC), ev.AsOf)
}

func TestExtract_Terms(t *testing.T) {
	body := `{"terms":{"rate":"8.00%","frequency":"quarterly","liquidation_preference":"$100"},"as_of":"2026-06-01"}`
	spec := model.MetricSpec{Kind: model.MetricDividendTerms, Value: model.MetricValue{
		Terms: map[string]string{"rate": "8.00%", "frequency": "quarterly", "liquidation_preference": "$100"},
	}}
	desc := model.SourceDescriptor{Name: "sec_offering_docs", Type: model.SourceFiling}

	ev, err := Extract(payloadResult(body), desc, spec, model.Company{})
	require.NoError(t, err)
	assert.True(t, ev.Value.Structural())
	assert.Equal(t, "8.00%", ev.Value.Terms["rate"])
}

func TestExtract_MalformedPayload(t *testing.T) {
	spec := model.MetricSpec{Kind: model.MetricSharesOutstanding, Value: model.MetricValue{Unit: "shares"}}
	_, err := Extract(payloadResult(`not json`), model.SourceDescriptor{Type: model.SourceFiling}, spec, model.Company{})

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, ReasonMalformed, f.Reason)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"672,497", 672497, true},
		{"$170M", 170e6, true},
		{"$1.5B", 1.5e9, true},
		{"4.2%", 4.2, true},
		{"100,000,000", 1e8, true},
		{"12k", 12000, true},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		assert.Equal(t, tt.ok, ok, "ok for %q", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "value for %q", tt.in)
		}
	}
}

func TestFindAmountNear(t *testing.T) {
	n, ok := findAmountNear("treasury holds 838,000 ETH staked", "ETH")
	require.True(t, ok)
	assert.Equal(t, 838000.0, n)

	n, ok = findAmountNear("BTC holdings: 672,497 as of today", "BTC")
	require.True(t, ok)
	assert.Equal(t, 672497.0, n)

	_, ok = findAmountNear("no numbers here", "BTC")
	assert.False(t, ok)
}

func TestExtract_CompanyFacts_PrefersCommensurableUnit(t *testing.T) {
	// Concepts can report under several units; the one comparable to the
	// configured unit must win regardless of map order.
	body := `{"facts":{"dei":{"EntityCommonStockSharesOutstanding":{"units":{
		"USD":[{"end":"2026-06-30","val":5000000000,"form":"10-Q","filed":"2026-07-15"}],
		"shares":[{"end":"2026-06-30","val":100000000,"form":"10-Q","filed":"2026-07-15"}]
	}}}}}`
	spec := model.MetricSpec{Kind: model.MetricSharesOutstanding, Value: model.MetricValue{Number: 1e8, Unit: "shares"}}

	ev, err := Extract(payloadResult(body), model.SourceDescriptor{Name: "sec_edgar_facts", Type: model.SourceFiling}, spec, model.Company{})
	require.NoError(t, err)
	assert.Equal(t, model.Unit("shares"), ev.Value.Unit)
	assert.Equal(t, float64(100000000), ev.Value.Number)
}

func TestUnitsPreferred(t *testing.T) {
	units := map[string][]factEntry{"USD": nil, "shares": nil, "EUR": nil}
	assert.Equal(t, []string{"shares", "EUR", "USD"}, unitsPreferred(units, "shares"))
	assert.Equal(t, []string{"USD", "EUR", "shares"}, unitsPreferred(units, "usd"))
	assert.Equal(t, []string{"EUR", "USD", "shares"}, unitsPreferred(units, "BTC"))
}
