package model

// SourceType classifies an authoritative source by how it is retrieved
// and how much trust it carries. Lower Priority wins.
type SourceType string

const (
	SourceOfficialDisclosure  SourceType = "official_disclosure"
	SourceFiling              SourceType = "filing"
	SourceAggregator          SourceType = "aggregator"
	SourceMarketData          SourceType = "market_data"
	SourceMarketDataSecondary SourceType = "market_data_secondary"
)

// Priority returns the fixed precedence of a source type. Official
// disclosures outrank filings, filings outrank aggregators, and so on.
// Unknown types sort last.
func (t SourceType) Priority() int {
	switch t {
	case SourceOfficialDisclosure:
		return 0
	case SourceFiling:
		return 1
	case SourceAggregator:
		return 2
	case SourceMarketData:
		return 3
	case SourceMarketDataSecondary:
		return 4
	}
	return 5
}

// SourceDescriptor is one candidate source in a metric's ranked chain.
// Locator is a URL or query template; {ticker}, {cik} and {asset}
// placeholders are expanded by the fetch adapter.
type SourceDescriptor struct {
	Name    string     `json:"name" yaml:"name"`
	Type    SourceType `json:"type" yaml:"type"`
	Locator string     `json:"locator" yaml:"locator"`
	Rank    int        `json:"rank" yaml:"rank"`
}
