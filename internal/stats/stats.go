// Package stats reduces per-request outcomes into per-scenario summary
// statistics.
package stats

import (
	"math"
	"sort"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"

	"github.com/sbellingham/riposte/internal/bench"
)

// Histogram bounds match what a loopback benchmark can plausibly
// produce: 1 microsecond to 1 hour at 3 significant figures.
const (
	histMinMicros = 1
	histMaxMicros = int64(time.Hour / time.Microsecond)
	histSigFigs   = 3
)

// ScenarioResult is the aggregate of one scenario run.
//
// Latencies holds every successful sample in milliseconds, sorted
// ascending. Timeouts and connection failures are folded into the single
// ErrorCount; the distinction exists on the Outcome but is deliberately
// not carried into the aggregate. Invariant:
// RequestCount == len(Latencies) + ErrorCount.
type ScenarioResult struct {
	Name         string
	RequestCount int
	TotalTime    time.Duration
	Latencies    []float64
	ErrorCount   int
	Throughput   float64 // completed requests per second of wall-clock time

	hist *hdrhistogram.Histogram
}

// Summarize splits outcomes into latency samples and failures, sorts the
// samples, and computes throughput over the measured wall-clock time.
// Every outcome contributes to exactly one of Latencies or ErrorCount.
func Summarize(name string, outcomes []bench.Outcome, totalTime time.Duration) ScenarioResult {
	r := ScenarioResult{
		Name:         name,
		RequestCount: len(outcomes),
		TotalTime:    totalTime,
		hist:         hdrhistogram.New(histMinMicros, histMaxMicros, histSigFigs),
	}

	for _, o := range outcomes {
		if !o.OK() {
			r.ErrorCount++
			continue
		}
		r.Latencies = append(r.Latencies, float64(o.Latency)/float64(time.Millisecond))

		micros := o.Latency.Microseconds()
		if micros < histMinMicros {
			micros = histMinMicros
		}
		if micros > histMaxMicros {
			micros = histMaxMicros
		}
		_ = r.hist.RecordValue(micros)
	}

	sort.Float64s(r.Latencies)

	if totalTime > 0 {
		r.Throughput = float64(r.RequestCount) / totalTime.Seconds()
	}

	return r
}

// Percentile returns the sample at nearest-rank index floor(n*p), clamped
// to the valid range. No interpolation: with five samples p99 resolves to
// the maximum, and that small-n degeneracy is part of the contract.
// Returns NaN when there are no samples.
func (r ScenarioResult) Percentile(p float64) float64 {
	n := len(r.Latencies)
	if n == 0 {
		return math.NaN()
	}
	idx := int(math.Floor(float64(n) * p))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return r.Latencies[idx]
}

// Min returns the smallest latency sample in milliseconds, or NaN when no
// request succeeded.
func (r ScenarioResult) Min() float64 {
	if len(r.Latencies) == 0 {
		return math.NaN()
	}
	return r.Latencies[0]
}

// Max returns the largest latency sample in milliseconds, or NaN when no
// request succeeded.
func (r ScenarioResult) Max() float64 {
	if len(r.Latencies) == 0 {
		return math.NaN()
	}
	return r.Latencies[len(r.Latencies)-1]
}

// Avg returns the arithmetic mean latency in milliseconds, or NaN when no
// request succeeded.
func (r ScenarioResult) Avg() float64 {
	if len(r.Latencies) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, l := range r.Latencies {
		sum += l
	}
	return sum / float64(len(r.Latencies))
}

// Bracket is one row of the histogram-backed latency distribution.
type Bracket struct {
	Quantile float64 // e.g. 50.0 for the median
	ValueMs  float64
}

// Distribution returns coarse latency brackets derived from the HDR
// histogram. The headline percentiles always come from the raw sorted
// samples; the histogram only backs this distribution view in the
// verbose report.
func (r ScenarioResult) Distribution() []Bracket {
	if r.hist == nil || r.hist.TotalCount() == 0 {
		return nil
	}
	quantiles := []float64{10, 25, 50, 75, 90, 99, 99.9}
	brackets := make([]Bracket, 0, len(quantiles))
	for _, q := range quantiles {
		micros := r.hist.ValueAtQuantile(q)
		brackets = append(brackets, Bracket{
			Quantile: q,
			ValueMs:  float64(micros) / 1000.0,
		})
	}
	return brackets
}
