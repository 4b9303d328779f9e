// Package harness orchestrates a benchmark run: it owns the
// server-under-test lifecycle, drives each scenario through the
// dispatch/schedule/summarize pipeline, and guarantees teardown on every
// exit path.
package harness

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/sbellingham/riposte/internal/bench"
	"github.com/sbellingham/riposte/internal/stats"
)

const (
	shutdownTimeout = 5 * time.Second
	probeInterval   = 25 * time.Millisecond
)

// State tracks the benchmark lifecycle.
type State int

const (
	StateIdle State = iota
	StateServerStarting
	StateRunning
	StateShuttingDown
	StateDone
	StateFailed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateServerStarting:
		return "server-starting"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting-down"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Target is the server-under-test as the harness sees it: something that
// can bind an ephemeral port, report where it is listening, and shut
// down. The harness never inspects what is behind the URL.
type Target interface {
	Start() error
	URL() string
	Shutdown(ctx context.Context) error
}

// ScenarioRunner binds one scenario to the scheduler pipeline, producing
// exactly one ScenarioResult per invocation. No retries: a scenario run
// is performed exactly once.
type ScenarioRunner struct {
	scheduler *bench.BatchScheduler
}

// NewScenarioRunner creates a runner over the given scheduler.
func NewScenarioRunner(scheduler *bench.BatchScheduler) *ScenarioRunner {
	return &ScenarioRunner{scheduler: scheduler}
}

// Run drives the scenario through warmup, measurement, and aggregation.
func (r *ScenarioRunner) Run(ctx context.Context, endpoint string, sc bench.Scenario) (stats.ScenarioResult, error) {
	outcomes, totalTime, err := r.scheduler.Run(ctx, endpoint, sc.Path)
	if err != nil {
		return stats.ScenarioResult{}, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	return stats.Summarize(sc.Name, outcomes, totalTime), nil
}

// BenchmarkRunner runs the ordered scenario list against a Target.
//
// Lifecycle: Idle -> ServerStarting -> Running -> ShuttingDown -> Done,
// with an error edge to Failed from any state. Target teardown happens on
// every exit path, success or failure.
type BenchmarkRunner struct {
	target       Target
	runner       *ScenarioRunner
	scenarios    []bench.Scenario
	progress     io.Writer
	probeTimeout time.Duration
	state        State
}

// RunnerOption configures a BenchmarkRunner.
type RunnerOption func(*BenchmarkRunner)

// WithProgress directs per-scenario progress lines to w. The default
// discards them.
func WithProgress(w io.Writer) RunnerOption {
	return func(b *BenchmarkRunner) {
		b.progress = w
	}
}

// NewBenchmarkRunner creates a runner for the given scenarios. Scenario
// order is preserved all the way into the report.
func NewBenchmarkRunner(target Target, runner *ScenarioRunner, scenarios []bench.Scenario, opts ...RunnerOption) *BenchmarkRunner {
	b := &BenchmarkRunner{
		target:       target,
		runner:       runner,
		scenarios:    scenarios,
		progress:     io.Discard,
		probeTimeout: 5 * time.Second,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current lifecycle state. The runner is driven from a
// single goroutine; State exists for observation after Run returns and
// from test hooks, not for cross-goroutine coordination.
func (b *BenchmarkRunner) State() State {
	return b.state
}

// Run starts the target, waits for it to become ready, executes every
// scenario in registration order, and returns their results in that same
// order. On any failure the collected results are discarded: a partial
// report is worse than no report.
func (b *BenchmarkRunner) Run(ctx context.Context) (results []stats.ScenarioResult, err error) {
	b.state = StateServerStarting
	if err := b.target.Start(); err != nil {
		b.state = StateFailed
		return nil, fmt.Errorf("starting target server: %w", err)
	}

	defer func() {
		b.state = StateShuttingDown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = b.target.Shutdown(shutdownCtx)
		if err != nil {
			b.state = StateFailed
			results = nil
		} else {
			b.state = StateDone
		}
	}()

	if err = b.waitReady(ctx); err != nil {
		return nil, err
	}

	b.state = StateRunning
	results = make([]stats.ScenarioResult, 0, len(b.scenarios))
	for _, sc := range b.scenarios {
		fmt.Fprintf(b.progress, "benchmarking %s (%s)\n", sc.Name, sc.Path)
		res, runErr := b.runner.Run(ctx, b.target.URL(), sc)
		if runErr != nil {
			err = runErr
			return nil, err
		}
		results = append(results, res)
	}

	return results, nil
}

// waitReady polls the target's health endpoint until it answers
// {"status":"ok"} or the probe window closes. The probe uses its own
// short-lived client so it never interferes with measurement.
func (b *BenchmarkRunner) waitReady(ctx context.Context) error {
	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(b.probeTimeout)

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp, err := client.Get(b.target.URL() + "/health")
		if err == nil {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr == nil && resp.StatusCode == http.StatusOK &&
				gjson.GetBytes(body, "status").String() == "ok" {
				return nil
			}
		}

		time.Sleep(probeInterval)
	}

	return fmt.Errorf("target server at %s not ready after %v", b.target.URL(), b.probeTimeout)
}
