package model

import "time"

// Company is one treasury company under audit.
type Company struct {
	Ticker  string       `json:"ticker" yaml:"ticker"`
	Name    string       `json:"name" yaml:"name"`
	Asset   string       `json:"asset" yaml:"asset"` // BTC, ETH, SOL, HYPE, BNB
	CIK     string       `json:"cik,omitempty" yaml:"cik,omitempty"`
	Tier    int          `json:"tier,omitempty" yaml:"tier,omitempty"`
	Metrics []MetricSpec `json:"metrics" yaml:"metrics"`
}

// RunStatus represents the current state of an audit run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run represents a single audit run as persisted in the store.
type Run struct {
	ID        string      `json:"id"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
