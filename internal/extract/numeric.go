package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// scaleSuffixes maps trailing magnitude markers to multipliers.
var scaleSuffixes = map[string]float64{
	"k": 1e3, "m": 1e6, "b": 1e9, "t": 1e12,
}

// ParseAmount parses a human-formatted number: thousands separators,
// leading $, trailing %, and K/M/B/T scale suffixes. "$170M" → 1.7e8.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}

	mult := 1.0
	last := strings.ToLower(s[len(s)-1:])
	if m, ok := scaleSuffixes[last]; ok {
		mult = m
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n * mult, true
}

// amountPattern matches a formatted number optionally preceded by $ and
// followed by a scale suffix, e.g. "672,497", "$170M", "4.2".
const amountPattern = `\$?([0-9][0-9,]*(?:\.[0-9]+)?)\s*([KkMmBbTt])?`

// findAmountNear scans free-form page text for a number adjacent to the
// given unit token (e.g. "672,497 BTC" or "BTC holdings: 672,497").
func findAmountNear(text, unitToken string) (float64, bool) {
	if unitToken == "" {
		return 0, false
	}
	tok := regexp.QuoteMeta(unitToken)

	// Number followed by the unit.
	re := regexp.MustCompile(`(?i)` + amountPattern + `\s*` + tok + `\b`)
	if m := re.FindStringSubmatch(text); m != nil {
		return ParseAmount(m[1] + m[2])
	}

	// Unit (with optional filler words) followed by the number.
	re = regexp.MustCompile(`(?i)\b` + tok + `\b[^0-9$]{0,40}` + amountPattern)
	if m := re.FindStringSubmatch(text); m != nil {
		return ParseAmount(m[1] + m[2])
	}

	return 0, false
}
