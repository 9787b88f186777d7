package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/treasury-audit/internal/model"
	"github.com/sells-group/treasury-audit/internal/resilience"
)

// HTTPOptions configures the HTTP fetch adapter.
type HTTPOptions struct {
	// UserAgent is sent on every request. SEC endpoints reject requests
	// without a contact-bearing user agent.
	UserAgent string

	// Timeout bounds each source attempt independently of the run budget.
	Timeout time.Duration

	// MaxRetries is the retry count for transient failures within one
	// attempt. Fallback to the next ranked source is not a retry.
	MaxRetries int

	// RequestsPerHost throttles outbound requests per host. Default 2/s.
	RequestsPerHost rate.Limit

	// MaxPayloadBytes caps response body size. Default 8 MiB.
	MaxPayloadBytes int64
}

// HTTPFetcher implements Fetcher over net/http with per-host rate limiting
// and bounded retries.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTP creates an HTTP fetch adapter.
func NewHTTP(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 2
	}
	if opts.RequestsPerHost <= 0 {
		opts.RequestsPerHost = 2
	}
	if opts.MaxPayloadBytes <= 0 {
		opts.MaxPayloadBytes = 8 << 20
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: opts.Timeout},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Fetch retrieves the descriptor's resolved URL. Availability problems are
// folded into the Result; the only panics-to-errors surface is programmer
// error in the locator template.
func (f *HTTPFetcher) Fetch(ctx context.Context, desc model.SourceDescriptor, company model.Company) Result {
	target := ExpandLocator(desc, company)

	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return NotAvailable(target, ReasonFetchError, "invalid locator")
	}

	if err := f.limiter(u.Host).Wait(ctx); err != nil {
		return NotAvailable(target, ReasonFetchError, "cancelled while rate limited")
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.MaxAttempts = f.opts.MaxRetries + 1
	retryCfg.OnRetry = resilience.RetryLogger(desc.Name)

	body, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) ([]byte, error) {
		return f.get(ctx, target)
	})
	if err != nil {
		return classify(target, err)
	}

	zap.L().Debug("fetched source",
		zap.String("source", desc.Name),
		zap.String("url", target),
		zap.Int("bytes", len(body)),
	)

	return Result{Payload: body, RetrievedAt: time.Now().UTC(), URL: target}
}

func (f *HTTPFetcher) get(ctx context.Context, target string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: build request")
	}
	// Accept-Encoding is left to the transport so it negotiates gzip and
	// decompresses the body itself; setting it here would hand us raw
	// gzip bytes.
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, resilience.NewTransientError(
			fmt.Errorf("fetch: http %d from %s", resp.StatusCode, target), resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch: http %d from %s", resp.StatusCode, target)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxPayloadBytes))
	if err != nil {
		return nil, eris.Wrap(err, "fetch: read body")
	}
	return body, nil
}

var errNotFound = eris.New("fetch: not found")

// classify folds a terminal fetch error into an unavailable Result.
func classify(target string, err error) Result {
	switch {
	case eris.Is(err, errNotFound):
		return NotAvailable(target, ReasonNotFound, "http 404")
	case eris.Is(err, context.DeadlineExceeded):
		return NotAvailable(target, ReasonTimeout, "attempt timed out")
	case resilience.IsTransient(err):
		return NotAvailable(target, ReasonNetworkFailure, err.Error())
	default:
		return NotAvailable(target, ReasonFetchError, err.Error())
	}
}

func (f *HTTPFetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[host]
	if !ok {
		l = rate.NewLimiter(f.opts.RequestsPerHost, 1)
		f.limiters[host] = l
	}
	return l
}
