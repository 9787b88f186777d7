package extract

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sells-group/treasury-audit/internal/fetch"
	"github.com/sells-group/treasury-audit/internal/model"
)

// extractAggregate handles aggregator payloads: CoinGecko public-treasury
// listings and staking-yield feeds.
func extractAggregate(res fetch.Result, desc model.SourceDescriptor, spec model.MetricSpec, company model.Company) (*model.ExtractedValue, error) {
	switch {
	case strings.Contains(desc.Name, "treasury"):
		return extractTreasuryListing(res, spec, company)
	case spec.Kind == model.MetricStakingAPY:
		return extractStakingYield(res, spec)
	default:
		return nil, failf(ReasonNoValue, "aggregator %s cannot supply %s", desc.Name, spec.Kind)
	}
}

// treasuryListing is the CoinGecko public_treasury response shape.
type treasuryListing struct {
	Companies []struct {
		Name     string  `json:"name"`
		Symbol   string  `json:"symbol"`
		Holdings float64 `json:"total_holdings"`
	} `json:"companies"`
}

// extractTreasuryListing finds the company's row in a public-treasury
// aggregate and reads its holdings.
func extractTreasuryListing(res fetch.Result, spec model.MetricSpec, company model.Company) (*model.ExtractedValue, error) {
	var listing treasuryListing
	if err := json.Unmarshal(res.Payload, &listing); err != nil {
		return nil, failf(ReasonMalformed, "treasury listing: %v", err)
	}

	ticker := strings.ToUpper(company.Ticker)
	for _, row := range listing.Companies {
		// Symbols come as "NASDAQ:MSTR"; match on the trailing ticker.
		sym := strings.ToUpper(row.Symbol)
		if sym == ticker || strings.HasSuffix(sym, ":"+ticker) {
			return &model.ExtractedValue{
				Value:    model.MetricValue{Number: row.Holdings, Unit: model.Unit(company.Asset)},
				Citation: "public treasury aggregate entry for " + row.Name,
			}, nil
		}
	}

	return nil, failf(ReasonNoValue, "%s not in treasury aggregate", company.Ticker)
}

// stakingYield is the minimal staking feed shape: a reward rate in percent
// with an as-of timestamp.
type stakingYield struct {
	RewardRate float64 `json:"reward_rate"`
	UpdatedAt  string  `json:"updated_at"`
}

func extractStakingYield(res fetch.Result, spec model.MetricSpec) (*model.ExtractedValue, error) {
	var y stakingYield
	if err := json.Unmarshal(res.Payload, &y); err != nil {
		return nil, failf(ReasonMalformed, "staking feed: %v", err)
	}
	if y.RewardRate == 0 {
		return nil, failf(ReasonNoValue, "staking feed has no reward rate")
	}

	asOf, _ := time.Parse(time.RFC3339, y.UpdatedAt)
	return &model.ExtractedValue{
		Value:    model.MetricValue{Number: y.RewardRate, Unit: "pct"},
		AsOf:     asOf,
		Citation: "staking reward rate feed",
	}, nil
}

// quoteStats is the subset of a market-data quote payload the extractor
// reads. Both the primary and secondary quote endpoints are normalized to
// this shape.
type quoteStats struct {
	SharesOutstanding float64 `json:"shares_outstanding"`
	MarketCap         float64 `json:"market_cap"`
	AsOf              string  `json:"as_of"`
}

func extractQuote(res fetch.Result, spec model.MetricSpec) (*model.ExtractedValue, error) {
	var q quoteStats
	if err := json.Unmarshal(res.Payload, &q); err != nil {
		return nil, failf(ReasonMalformed, "quote: %v", err)
	}

	var value model.MetricValue
	switch spec.Kind {
	case model.MetricSharesOutstanding:
		if q.SharesOutstanding == 0 {
			return nil, failf(ReasonNoValue, "quote has no shares outstanding")
		}
		value = model.MetricValue{Number: q.SharesOutstanding, Unit: "shares"}
	case model.MetricMarketCap:
		if q.MarketCap == 0 {
			return nil, failf(ReasonNoValue, "quote has no market cap")
		}
		value = model.MetricValue{Number: q.MarketCap, Unit: "usd"}
	default:
		return nil, failf(ReasonNoValue, "quote cannot supply %s", spec.Kind)
	}

	asOf, _ := time.Parse("2006-01-02", q.AsOf)
	return &model.ExtractedValue{
		Value:    value,
		AsOf:     asOf,
		Citation: "market data quote",
	}, nil
}

// extractDisclosurePage scans an official disclosure page (HTML or text)
// for a number adjacent to the metric's unit token.
func extractDisclosurePage(res fetch.Result, spec model.MetricSpec) (*model.ExtractedValue, error) {
	unit := spec.Value.Unit
	n, ok := findAmountNear(string(res.Payload), string(unit))
	if !ok {
		return nil, failf(ReasonNoValue, "no %s amount on disclosure page", unit)
	}
	return &model.ExtractedValue{
		Value:    model.MetricValue{Number: n, Unit: unit},
		Citation: "official disclosure page",
	}, nil
}

// extractTerms parses a structured term set (dividend terms) from a JSON
// payload carrying a "terms" object.
func extractTerms(res fetch.Result) (*model.ExtractedValue, error) {
	var payload struct {
		Terms map[string]string `json:"terms"`
		AsOf  string            `json:"as_of"`
	}
	if err := json.Unmarshal(res.Payload, &payload); err != nil {
		return nil, failf(ReasonMalformed, "terms payload: %v", err)
	}
	if len(payload.Terms) == 0 {
		return nil, failf(ReasonNoValue, "payload carries no term set")
	}

	asOf, _ := time.Parse("2006-01-02", payload.AsOf)
	return &model.ExtractedValue{
		Value:    model.MetricValue{Terms: payload.Terms},
		AsOf:     asOf,
		Citation: "offering terms disclosure",
	}, nil
}
