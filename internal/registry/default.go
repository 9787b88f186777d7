package registry

import "github.com/sells-group/treasury-audit/internal/model"

// Default returns the built-in source table. A registry.yaml file, when
// present, replaces this entirely so the table stays editable without a
// rebuild.
func Default() *Registry {
	return New(&Config{
		Defaults: map[model.MetricKind][]model.SourceDescriptor{
			model.MetricHoldings: {
				{Name: "sec_edgar_facts", Type: model.SourceFiling, Locator: "https://data.sec.gov/api/xbrl/companyfacts/CIK{cik}.json"},
				{Name: "coingecko_treasury", Type: model.SourceAggregator, Locator: "https://api.coingecko.com/api/v3/companies/public_treasury/{asset}"},
			},
			model.MetricBurnRate: {
				{Name: "sec_edgar_facts", Type: model.SourceFiling, Locator: "https://data.sec.gov/api/xbrl/companyfacts/CIK{cik}.json"},
			},
			model.MetricSharesOutstanding: {
				{Name: "sec_edgar_facts", Type: model.SourceFiling, Locator: "https://data.sec.gov/api/xbrl/companyfacts/CIK{cik}.json"},
				{Name: "quote_primary", Type: model.SourceMarketData, Locator: "https://query1.finance.yahoo.com/v10/finance/quoteSummary/{ticker}?modules=defaultKeyStatistics"},
				{Name: "quote_secondary", Type: model.SourceMarketDataSecondary, Locator: "https://www.stockanalysis.com/api/symbol/s/{ticker}/statistics"},
			},
			model.MetricStakingAPY: {
				{Name: "stakingrewards", Type: model.SourceAggregator, Locator: "https://api.stakingrewards.com/assets/{asset}"},
			},
			model.MetricDividendTerms: {
				{Name: "sec_offering_docs", Type: model.SourceFiling, Locator: "https://data.sec.gov/submissions/CIK{cik}.json"},
			},
			model.MetricMarketCap: {
				{Name: "quote_primary", Type: model.SourceMarketData, Locator: "https://query1.finance.yahoo.com/v10/finance/quoteSummary/{ticker}?modules=price"},
				{Name: "quote_secondary", Type: model.SourceMarketDataSecondary, Locator: "https://www.stockanalysis.com/api/symbol/s/{ticker}/statistics"},
			},
		},
		Companies: map[string]map[model.MetricKind][]model.SourceDescriptor{
			// Strategy publishes purchases directly; that page outranks filings.
			"MSTR": {
				model.MetricHoldings: {
					{Name: "strategy_purchases", Type: model.SourceOfficialDisclosure, Locator: "https://www.strategy.com/purchases"},
				},
			},
			"MARA": {
				model.MetricHoldings: {
					{Name: "mara_ir", Type: model.SourceOfficialDisclosure, Locator: "https://ir.mara.com/"},
				},
			},
		},
	})
}
