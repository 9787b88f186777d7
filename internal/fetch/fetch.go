// Package fetch is the retrieval boundary of the audit engine. The engine
// consumes the Fetcher interface only; expected availability problems are
// encoded in the Result, never raised as errors.
package fetch

import (
	"context"
	"time"

	"github.com/sells-group/treasury-audit/internal/model"
)

// Reason codes for unavailable results.
type Reason string

const (
	ReasonNetworkFailure Reason = "network_failure"
	ReasonNotFound       Reason = "not_found"
	ReasonTimeout        Reason = "timeout"
	ReasonFetchError     Reason = "fetch_error"
)

// Result is the outcome of attempting one source descriptor: a raw payload
// with its retrieval time, or an unavailable marker with a reason.
type Result struct {
	Payload     []byte    `json:"-"`
	RetrievedAt time.Time `json:"retrieved_at"`
	URL         string    `json:"url"` // resolved URL actually requested
	Unavailable bool      `json:"unavailable,omitempty"`
	Reason      Reason    `json:"reason,omitempty"`
	Detail      string    `json:"detail,omitempty"`
}

// NotAvailable builds an unavailable Result.
func NotAvailable(url string, reason Reason, detail string) Result {
	return Result{URL: url, Unavailable: true, Reason: reason, Detail: detail}
}

// Fetcher retrieves the content behind a source descriptor for a company.
// Implementations expand the descriptor's locator template and must not
// return errors for expected network or availability problems.
type Fetcher interface {
	Fetch(ctx context.Context, desc model.SourceDescriptor, company model.Company) Result
}
