// Package main provides the CLI entry point for setbench, a throughput and
// memory benchmark for set containers.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/weiihann/setbench/config"
	"github.com/weiihann/setbench/container"
	"github.com/weiihann/setbench/harness"
	"github.com/weiihann/setbench/report"
	"github.com/weiihann/setbench/workload"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	root := newRootCmd(logger, level)
	if err := root.Execute(); err != nil {
		logger.Error("setbench failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "setbench",
		Short: "Throughput and memory benchmark for set containers",
		Long: `Setbench drives a fixed battery of workloads (insert, delete, lookups
and randomized churn) through every registered set container, across a
matrix of dataset sizes and key types, and reports throughput, peak
memory, bytes per element and leaked bytes for each case.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				level.Set(slog.LevelDebug)
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Log every finished case")

	root.AddCommand(newRunCmd(logger))
	root.AddCommand(newListCmd())

	return root
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		configPath string
		sizes      []int
		types      []string
		containers []string
		workloads  []string
		opsBudget  int
		seed       int64
		format     string
		outputJSON bool
		progress   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark matrix",
		Long: `Enumerate the configured matrix of sizes, key types, containers and
workloads and run every supported combination in sequence. Flags override
values from the --config file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outputJSON {
				format = "json"
			}

			return runBenchmark(cmd.Context(), logger, runConfig{
				configPath: configPath,
				sizes:      sizes,
				types:      types,
				containers: containers,
				workloads:  workloads,
				opsBudget:  opsBudget,
				seed:       seed,
				format:     format,
				progress:   progress,
				changed:    cmd.Flags().Changed,
				out:        cmd.OutOrStdout(),
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "",
		"Path to a YAML matrix file")
	flags.IntSliceVar(&sizes, "sizes", nil,
		"Dataset sizes (e.g. 1024,32768)")
	flags.StringSliceVar(&types, "types", nil,
		"Key types: uint64, string")
	flags.StringSliceVar(&containers, "containers", nil,
		"Containers to benchmark (see 'setbench list')")
	flags.StringSliceVar(&workloads, "workloads", nil,
		"Workloads: insert, delete, search-hit, search-miss, search-mixed, rand-workload")
	flags.IntVar(&opsBudget, "ops-budget", harness.DefaultOpsBudget,
		"Reference operation count; a case runs max(1, budget/size) rounds")
	flags.Int64Var(&seed, "seed", 0,
		"Key generator seed")
	flags.StringVar(&format, "format", "table",
		"Output format: table, json, markdown")
	flags.BoolVar(&outputJSON, "json", false,
		"Output results as JSON lines (same as --format json)")
	flags.BoolVar(&progress, "progress", false,
		"Show a progress bar on stderr when it is a terminal")

	return cmd
}

type runConfig struct {
	configPath string
	sizes      []int
	types      []string
	containers []string
	workloads  []string
	opsBudget  int
	seed       int64
	format     string
	progress   bool
	changed    func(flag string) bool
	out        io.Writer
}

// resolve loads the config file and layers explicitly set flags on top.
func (rc runConfig) resolve() (*config.Config, error) {
	cfg, err := config.Load(rc.configPath)
	if err != nil {
		return nil, err
	}

	if rc.changed("sizes") {
		cfg.Sizes = rc.sizes
	}
	if rc.changed("types") {
		cfg.Types = rc.types
	}
	if rc.changed("containers") {
		cfg.Containers = rc.containers
	}
	if rc.changed("workloads") {
		cfg.Workloads = rc.workloads
	}
	if rc.changed("ops-budget") {
		cfg.OpsBudget = rc.opsBudget
	}
	if rc.changed("seed") {
		cfg.Seed = rc.seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	rc runConfig,
) error {
	cfg, err := rc.resolve()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	m, err := cfg.Matrix()
	if err != nil {
		return fmt.Errorf("build matrix: %w", err)
	}

	cases := harness.Enumerate(m)
	if len(cases) == 0 {
		return fmt.Errorf("matrix selects no runnable cases")
	}

	sink, err := newSink(rc.format, rc.out)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting benchmark",
		slog.Any("sizes", cfg.Sizes),
		slog.Any("types", cfg.Types),
		slog.Any("containers", cfg.Containers),
		slog.Any("workloads", cfg.Workloads),
		slog.Int("cases", len(cases)),
		slog.Int64("seed", cfg.Seed),
	)

	gens := harness.NewGenerators(harness.MaxSize(cases), cfg.Seed)

	runner := harness.NewRunner(gens, sink, logger)
	runner.Budget = cfg.OpsBudget

	if rc.progress && isTerminal(os.Stderr) {
		bar := progressbar.NewOptions(len(cases),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("cases"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		runner.Progress = bar
		defer bar.Finish()
	}

	executed, err := runner.Run(ctx, cases)
	if err != nil {
		return fmt.Errorf("run benchmark: %w", err)
	}

	if s, ok := sink.(summarizer); ok {
		if err := s.Summary(executed); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	} else {
		fmt.Fprintf(rc.out, "total cases run: %d\n", executed)
	}

	logger.InfoContext(ctx, "benchmark complete", slog.Int("cases_run", executed))

	return nil
}

// summarizer is a sink that reports the executed count in its own format.
type summarizer interface {
	Summary(executed int) error
}

func newSink(format string, w io.Writer) (harness.Sink, error) {
	switch format {
	case "table":
		return report.NewTable(w), nil
	case "json":
		return report.NewJSONLines(w), nil
	case "markdown":
		return report.NewMarkdown(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered containers and workloads",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeListing(cmd.OutOrStdout())
		},
	}
}

func writeListing(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "FAMILY\tCONTAINER\tKEYS\tMEASURED BY")
	for _, info := range container.Describe() {
		types := make([]string, len(info.Types))
		for i, t := range info.Types {
			types[i] = t.String()
		}

		source := "runtime"
		if info.Tracked {
			source = "tracker"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			info.Family, info.Name, strings.Join(types, ","), source)
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "WORKLOAD\tNAME")
	for _, k := range workload.Kinds() {
		fmt.Fprintf(tw, "%s\t%s\n", k.ID(), k)
	}

	return tw.Flush()
}
