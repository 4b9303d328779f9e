// Package bench implements the load-generation core: single-request
// dispatch, warmup sequencing, and batch-bounded concurrent scheduling.
package bench

import "time"

// FailureKind classifies why a dispatched request produced no latency
// sample.
type FailureKind int

const (
	// FailureNone marks a request that completed with a response.
	FailureNone FailureKind = iota

	// FailureTimeout marks a request aborted by the per-request deadline.
	FailureTimeout

	// FailureConnection marks a transport-level failure (refused
	// connection, reset, DNS error).
	FailureConnection
)

// String returns a human-readable name for the failure kind.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureTimeout:
		return "timeout"
	case FailureConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of exactly one dispatched request:
// either a success carrying its latency and status code, or a failure
// carrying its kind. Never both.
type Outcome struct {
	Latency    time.Duration
	StatusCode int
	Failure    FailureKind
}

// OK reports whether the request completed with a response. A non-2xx
// status still counts as OK: only transport failures and timeouts are
// failures.
func (o Outcome) OK() bool {
	return o.Failure == FailureNone
}

// Scenario is a named request target. The path may include a query
// string. Scenarios are defined once at startup and read-only thereafter;
// registration order is significant because the report preserves it.
type Scenario struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}
