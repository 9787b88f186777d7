package model

import "time"

// Verdict classifies the gap between a configured value and the value an
// authoritative source reported.
type Verdict string

const (
	VerdictMatch        Verdict = "match"
	VerdictWarning      Verdict = "warning"
	VerdictError        Verdict = "error"
	VerdictUnverifiable Verdict = "unverifiable"
)

// Freshness is the staleness judgment for a retrieved value.
type Freshness string

const (
	FreshnessFresh Freshness = "fresh"
	FreshnessStale Freshness = "stale"
)

// StalenessFlag carries the freshness verdict and the age of the winning
// source's as-of date at run time. Absent on unverifiable fields.
type StalenessFlag struct {
	Status  Freshness `json:"status"`
	AgeDays int       `json:"age_days"`
}

// ExtractedValue is a normalized value pulled from one source.
type ExtractedValue struct {
	Value     MetricValue `json:"value"`
	AsOf      time.Time   `json:"as_of,omitempty"`
	Source    string      `json:"source"`
	SourceURL string      `json:"source_url,omitempty"`
	Citation  string      `json:"citation,omitempty"` // e.g. "10-Q filed 2026-07-15"
}

// AttemptFailure records one failed source attempt during the ranked walk.
type AttemptFailure struct {
	Source string     `json:"source"`
	Type   SourceType `json:"type"`
	Rank   int        `json:"rank"`
	Reason string     `json:"reason"`
}

// FieldRecord is one row of the audit report: a configured metric, the
// value an authoritative source reported for it (if any), and the verdict.
type FieldRecord struct {
	Ticker     string           `json:"ticker"`
	Kind       MetricKind       `json:"kind"`
	Configured MetricValue      `json:"configured"`
	Extracted  *ExtractedValue  `json:"extracted,omitempty"`
	Verdict    Verdict          `json:"verdict"`
	Delta      *float64         `json:"delta,omitempty"` // relative; nil for structural or unverifiable
	Rule       string           `json:"rule,omitempty"`  // threshold rule applied
	Staleness  *StalenessFlag   `json:"staleness,omitempty"`
	Citation   string           `json:"citation"`
	Attempts   []AttemptFailure `json:"attempts,omitempty"`
}

// RecommendedUpdate suggests replacing a configured value with the
// source-reported one. Only warning and error verdicts produce these.
type RecommendedUpdate struct {
	Kind    MetricKind  `json:"kind"`
	From    MetricValue `json:"from"`
	To      MetricValue `json:"to"`
	Verdict Verdict     `json:"verdict"`
	Source  string      `json:"source"`
}

// CompanyReport aggregates the field records for one company.
type CompanyReport struct {
	Company     Company             `json:"company"`
	Records     []FieldRecord       `json:"records"`
	Recommended []RecommendedUpdate `json:"recommended,omitempty"`
}

// VerdictCounts tallies field records by verdict.
type VerdictCounts struct {
	Match        int `json:"match"`
	Warning      int `json:"warning"`
	Error        int `json:"error"`
	Unverifiable int `json:"unverifiable"`
}

// Total returns the number of records counted.
func (c VerdictCounts) Total() int {
	return c.Match + c.Warning + c.Error + c.Unverifiable
}

// Add accumulates another set of counts.
func (c *VerdictCounts) Add(o VerdictCounts) {
	c.Match += o.Match
	c.Warning += o.Warning
	c.Error += o.Error
	c.Unverifiable += o.Unverifiable
}

// SourceVisit records one consultation of an external source during a run.
type SourceVisit struct {
	Source      string    `json:"source"`
	URL         string    `json:"url,omitempty"`
	RetrievedAt time.Time `json:"retrieved_at"`
	Usable      bool      `json:"usable"`
}

// RunSummary is the run-level rollup across all companies.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Companies  int           `json:"companies"`
	Counts     VerdictCounts `json:"counts"`
	Incomplete bool          `json:"incomplete"` // run was cancelled before all fields resolved
	Sources    []SourceVisit `json:"sources,omitempty"`
}

// RunReport is the complete artifact of one reconciliation run.
type RunReport struct {
	Summary   RunSummary      `json:"summary"`
	Companies []CompanyReport `json:"companies"`
}
