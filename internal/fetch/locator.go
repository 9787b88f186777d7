package fetch

import (
	"strings"

	"github.com/sells-group/treasury-audit/internal/model"
)

// coingeckoAssets maps treasury asset symbols to CoinGecko coin ids used
// in public-treasury endpoints.
var coingeckoAssets = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"BNB":  "binancecoin",
	"HYPE": "hyperliquid",
}

// ExpandLocator substitutes {ticker}, {cik} and {asset} placeholders in a
// descriptor's locator template with values from the company.
func ExpandLocator(desc model.SourceDescriptor, company model.Company) string {
	r := strings.NewReplacer(
		"{ticker}", company.Ticker,
		"{cik}", PadCIK(company.CIK),
		"{asset}", AssetSlug(company.Asset),
	)
	return r.Replace(desc.Locator)
}

// PadCIK left-pads a CIK to the 10 digits SEC endpoints require.
func PadCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if cik == "" {
		return ""
	}
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}

// AssetSlug returns the CoinGecko coin id for an asset symbol, falling
// back to the lowercased symbol.
func AssetSlug(asset string) string {
	if slug, ok := coingeckoAssets[strings.ToUpper(strings.TrimSpace(asset))]; ok {
		return slug
	}
	return strings.ToLower(strings.TrimSpace(asset))
}
