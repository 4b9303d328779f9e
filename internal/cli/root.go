// Package cli wires the benchmark pipeline behind the riposte command.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sbellingham/riposte/internal/bench"
	"github.com/sbellingham/riposte/internal/config"
	"github.com/sbellingham/riposte/internal/harness"
	"github.com/sbellingham/riposte/internal/report"
	"github.com/sbellingham/riposte/internal/target"
)

var version = "0.1.0"

// rootCmd runs the full benchmark when invoked without arguments. The
// experiment parameters are fixed in config.DefaultConfig by design;
// only ambient concerns (config file, verbosity, color) are flags.
var rootCmd = &cobra.Command{
	Use:     "riposte",
	Short:   "Benchmark named HTTP scenarios against a bundled target server",
	Version: version,
	Long: `Riposte starts a local HTTP target server on an ephemeral port, drives
each configured scenario through a warmup phase and batch-bounded
concurrent measurement, and prints per-scenario statistics followed by a
comparison table.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBenchmark(cmd)
	},
}

func init() {
	rootCmd.Flags().String("config", "", "optional YAML experiment file")
	rootCmd.Flags().Bool("verbose", false, "include latency distributions and progress output")
	rootCmd.Flags().Bool("no-color", false, "disable colored output")
}

// Execute runs the root command and reports any fatal top-level error.
// Called by main.main, which converts the error into the exit status.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

func runBenchmark(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	var schedOpts []bench.SchedulerOption
	if cfg.MaxRPS > 0 {
		schedOpts = append(schedOpts, bench.WithMaxRPS(cfg.MaxRPS))
	}

	scheduler := bench.NewBatchScheduler(
		bench.NewHTTPDispatcher(),
		cfg.WarmupCount,
		cfg.BenchmarkCount,
		cfg.ConcurrencyLimit,
		time.Duration(cfg.Timeout),
		schedOpts...,
	)

	var runnerOpts []harness.RunnerOption
	if verbose {
		runnerOpts = append(runnerOpts, harness.WithProgress(os.Stderr))
	}

	runner := harness.NewBenchmarkRunner(
		target.NewServer(),
		harness.NewScenarioRunner(scheduler),
		cfg.Scenarios,
		runnerOpts...,
	)

	results, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	var printOpts []report.Option
	if verbose {
		printOpts = append(printOpts, report.WithVerbose())
	}
	if noColor {
		printOpts = append(printOpts, report.WithNoColor())
	}
	report.NewPrinter(os.Stdout, printOpts...).Print(results)

	return nil
}
