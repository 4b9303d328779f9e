// Package report renders benchmark results for the terminal. Pure
// formatting: the printer never reorders or recomputes results.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/sbellingham/riposte/internal/stats"
)

// nameWidth is the fixed column width for scenario names in the summary
// table. Longer names are truncated, shorter ones padded.
const nameWidth = 24

// Printer renders ScenarioResults as per-scenario blocks followed by a
// comparison table, preserving the order it is given.
type Printer struct {
	w       io.Writer
	scheme  *Scheme
	verbose bool
}

// Option configures a Printer.
type Option func(*Printer)

// WithVerbose includes the histogram-backed latency distribution in each
// scenario block.
func WithVerbose() Option {
	return func(p *Printer) {
		p.verbose = true
	}
}

// WithNoColor disables colored output regardless of the writer.
func WithNoColor() Option {
	return func(p *Printer) {
		p.scheme = NoColorScheme()
	}
}

// NewPrinter creates a printer writing to w. Colors are enabled only
// when w is an interactive terminal.
func NewPrinter(w io.Writer, opts ...Option) *Printer {
	p := &Printer{w: w}
	for _, opt := range opts {
		opt(p)
	}
	if p.scheme == nil {
		if isTerminal(w) {
			p.scheme = DefaultScheme()
		} else {
			p.scheme = NoColorScheme()
		}
	}
	return p
}

// Print renders one block per scenario followed by the summary table.
func (p *Printer) Print(results []stats.ScenarioResult) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.scheme.Header.Sprint("riposte - Scenario Benchmark"))
	fmt.Fprintln(p.w, p.scheme.Header.Sprint("============================"))

	for _, r := range results {
		p.printBlock(r)
	}

	p.printSummary(results)
}

func (p *Printer) printBlock(r stats.ScenarioResult) {
	fmt.Fprintln(p.w)
	fmt.Fprintf(p.w, "%s %s\n", p.scheme.Label.Sprint("Scenario:"), p.scheme.Name.Sprint(r.Name))
	fmt.Fprintf(p.w, "  %s %d\n", p.scheme.Label.Sprint("Requests:    "), r.RequestCount)
	fmt.Fprintf(p.w, "  %s %v\n", p.scheme.Label.Sprint("Total Time:  "), r.TotalTime.Round(time.Millisecond))
	fmt.Fprintf(p.w, "  %s %.2f\n", p.scheme.Label.Sprint("Requests/sec:"), r.Throughput)
	fmt.Fprintf(p.w, "  %s avg=%.2fms  min=%.2fms  max=%.2fms\n",
		p.scheme.Label.Sprint("Latency:     "), r.Avg(), r.Min(), r.Max())
	fmt.Fprintf(p.w, "  %s p50=%.2fms  p95=%.2fms  p99=%.2fms\n",
		p.scheme.Label.Sprint("Percentiles: "),
		r.Percentile(0.50), r.Percentile(0.95), r.Percentile(0.99))

	errLine := fmt.Sprintf("%d", r.ErrorCount)
	if r.ErrorCount > 0 {
		errLine = p.scheme.Error.Sprint(errLine)
	}
	fmt.Fprintf(p.w, "  %s %s\n", p.scheme.Label.Sprint("Errors:      "), errLine)

	if p.verbose {
		p.printDistribution(r)
	}
}

func (p *Printer) printDistribution(r stats.ScenarioResult) {
	brackets := r.Distribution()
	if len(brackets) == 0 {
		return
	}
	fmt.Fprintf(p.w, "  %s\n", p.scheme.Label.Sprint("Distribution:"))
	for _, b := range brackets {
		fmt.Fprintf(p.w, "    %6.1f%%  %10.2fms\n", b.Quantile, b.ValueMs)
	}
}

func (p *Printer) printSummary(results []stats.ScenarioResult) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.scheme.Header.Sprint("Summary"))
	fmt.Fprintln(p.w, p.scheme.Header.Sprint("-------"))
	fmt.Fprintf(p.w, "%-*s %14s %12s\n", nameWidth, "Scenario", "Requests/sec", "Avg (ms)")

	for _, r := range results {
		fmt.Fprintf(p.w, "%s %14.2f %12.2f\n",
			p.scheme.Name.Sprintf("%-*s", nameWidth, fitName(r.Name)),
			r.Throughput, r.Avg())
	}
}

// fitName truncates a scenario name to the summary column width.
func fitName(name string) string {
	if len(name) <= nameWidth {
		return name
	}
	return name[:nameWidth-1] + "…"
}
