package bench

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// Dispatcher issues one timed request per call and classifies the result.
// The concrete implementation is HTTPDispatcher; tests substitute
// instrumented fakes.
type Dispatcher interface {
	Dispatch(ctx context.Context, endpoint, path string, timeout time.Duration) Outcome
}

// HTTPDispatcher dispatches HTTP/1.1 GET requests. Keep-alives are
// disabled so every call opens a fresh connection: samples stay
// independent of each other and of connection-pool state.
type HTTPDispatcher struct {
	client *http.Client
}

// NewHTTPDispatcher creates a dispatcher with connection reuse disabled.
func NewHTTPDispatcher() *HTTPDispatcher {
	return &HTTPDispatcher{
		client: &http.Client{
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
		},
	}
}

// Dispatch sends a single GET to endpoint+path and stops the timer only
// after the full response body has been drained. A deadline expiry aborts
// the in-flight request and yields FailureTimeout; any transport error
// yields FailureConnection. Dispatch never returns an error to the
// caller: a failed request degrades statistics, not the run.
func (d *HTTPDispatcher) Dispatch(ctx context.Context, endpoint, path string, timeout time.Duration) Outcome {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+path, nil)
	if err != nil {
		return Outcome{Failure: FailureConnection}
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return classify(ctx, err)
	}
	defer resp.Body.Close()

	// Latency covers the whole exchange, body included.
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return classify(ctx, err)
	}

	return Outcome{Latency: time.Since(start), StatusCode: resp.StatusCode}
}

// classify converts a transport error into a failure outcome. The
// transport wraps the context error, so checking the context directly is
// the reliable way to tell a deadline abort from a broken connection.
func classify(ctx context.Context, err error) Outcome {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return Outcome{Failure: FailureTimeout}
	}
	return Outcome{Failure: FailureConnection}
}
