// Command pplrun runs one of the engine's example programs under a chosen
// inference strategy and prints the resulting marginal distribution.
package main

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"code.ppl.dev/ppl"
)

var programs = map[string]ppl.Program{
	"two-fair-coins":   ppl.TwoFairCoinsMatch,
	"bernoulli-mean":   ppl.BernoulliMean,
	"weighted-integer": ppl.WeightedRandomInteger,
	"cached-counter":   ppl.CachedCounterDemo,
	"hmm-filter":       ppl.HMMFilterDemo,
}

func sortedProgramNames() []string {
	names := make([]string, 0, len(programs))
	for name := range programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type options struct {
	strategy      string
	program       string
	particles     int
	maxExecutions int
	metricsAddr   string
	verbose       bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "pplrun",
		Short: "Run a probabilistic program under an inference strategy",
		Long: `pplrun runs one of the engine's built-in example programs under a
chosen inference strategy (forward sampling, exact enumeration, or a
particle filter) and prints the resulting marginal distribution.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.strategy, "strategy", "forward",
		"inference strategy: forward|enumerate|enumerate-dfs|enumerate-bfs|pf")
	cmd.Flags().StringVar(&opts.program, "program", "bernoulli-mean",
		fmt.Sprintf("example program to run: one of %v", sortedProgramNames()))
	cmd.Flags().IntVar(&opts.particles, "particles", 100, "particle count, for --strategy=pf")
	cmd.Flags().IntVar(&opts.maxExecutions, "max-executions", 1000, "completed-path bound, for enumeration strategies")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090) instead of exiting after the run")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug-level logging")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	runID := uuid.New().String()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With("run_id", runID)
	ppl.SetLogger(logger)

	program, ok := programs[opts.program]
	if !ok {
		return fmt.Errorf("unknown program %q: must be one of %v", opts.program, sortedProgramNames())
	}

	metricsDone := make(chan struct{})
	if opts.metricsAddr != "" {
		go func() {
			serveMetrics(logger, opts.metricsAddr)
			close(metricsDone)
		}()
	}

	logger.Info("run starting", "strategy", opts.strategy, "program", opts.program)

	var result *ppl.ERP
	deliver := func(erp *ppl.ERP) { result = erp }

	var err error
	switch opts.strategy {
	case "forward":
		err = ppl.Forward(deliver, program)
	case "enumerate":
		err = ppl.Enumerate(deliver, program, opts.maxExecutions)
	case "enumerate-dfs":
		err = ppl.EnumerateDepthFirst(deliver, program, opts.maxExecutions)
	case "enumerate-bfs":
		err = ppl.EnumerateBreadthFirst(deliver, program, opts.maxExecutions)
	case "pf":
		err = ppl.ParticleFilter(deliver, program, opts.particles)
	default:
		return fmt.Errorf("unknown strategy %q", opts.strategy)
	}
	if err != nil {
		logger.Error("run failed", "error", err)
		return err
	}

	printMarginal(cmd, result)
	logger.Info("run finished")
	if opts.metricsAddr != "" {
		// Keep serving metrics after the run until the server stops.
		<-metricsDone
	}
	return nil
}

func printMarginal(cmd *cobra.Command, erp *ppl.ERP) {
	out := cmd.OutOrStdout()
	if support, ok := erp.Support(nil); ok {
		for _, v := range support {
			score := erp.Score(nil, v)
			fmt.Fprintf(out, "%v\t%g\n", v, scoreToProb(score))
		}
		return
	}
	fmt.Fprintf(out, "%v\n", erp.Sample(nil))
}

func scoreToProb(logProb float64) float64 {
	if math.IsInf(logProb, -1) {
		return 0
	}
	return math.Exp(logProb)
}

// serveMetrics exposes the engine's Prometheus registry over HTTP until the
// process exits. Run in a background goroutine so a --metrics-addr run can
// be scraped after its single inference run completes.
func serveMetrics(logger *slog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(ppl.MetricsRegistry(), promhttp.HandlerOpts{}))
	logger.Info("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", "error", err)
	}
}
