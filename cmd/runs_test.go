package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/treasury-audit/internal/model"
)

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "12345678", truncateID("12345678-abcd-efgh"))
	assert.Equal(t, "short", truncateID("short"))
}

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:     "aaaabbbb-1111-2222",
			Status: model.RunStatusComplete,
			Summary: &model.RunSummary{
				Companies: 3,
				Counts:    model.VerdictCounts{Match: 10, Warning: 2, Error: 1},
			},
			CreatedAt: now,
			UpdatedAt: now.Add(42 * time.Second),
		},
		{
			ID:        "ccccdddd-3333-4444",
			Status:    model.RunStatusFailed,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	out := buf.String()
	assert.Contains(t, out, "aaaabbbb")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "42s")
	assert.Contains(t, out, "failed")
	assert.NotContains(t, out, "aaaabbbb-1111") // IDs are truncated
}

func TestFilterTicker(t *testing.T) {
	companies := []model.Company{
		{Ticker: "MSTR"}, {Ticker: "BMNR"}, {Ticker: "MARA"},
	}

	got := filterTicker(companies, "BMNR")
	assert.Len(t, got, 1)
	assert.Equal(t, "BMNR", got[0].Ticker)

	assert.Empty(t, filterTicker(companies, "ZZZZ"))
}
