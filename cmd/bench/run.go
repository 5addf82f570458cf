package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/model-bench/internal/benchmark"
	"github.com/stellarlinkco/model-bench/internal/config"
	"github.com/stellarlinkco/model-bench/internal/leaderboard"
	"github.com/stellarlinkco/model-bench/internal/registry"
	"github.com/stellarlinkco/model-bench/internal/resultstore"
)

type runOptions struct {
	prompts     []string
	promptsFile string
	models      []string
	metrics     []string
	format      string
}

func newRunCmd(st *cliState) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run prompts against models and record the results",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadState(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, st, &opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.prompts, "prompt", nil, "prompt to evaluate (repeatable)")
	cmd.Flags().StringVar(&opts.promptsFile, "prompts-file", "", "file with one prompt per line")
	cmd.Flags().StringArrayVar(&opts.models, "model", nil, "model id to benchmark (repeatable, default: all registered)")
	cmd.Flags().StringArrayVar(&opts.metrics, "metric", nil, "metric to score: latency|cost|quality|context_utilization (repeatable)")
	cmd.Flags().StringVar(&opts.format, "format", "table", "output format: table|json")

	return cmd
}

func runRun(cmd *cobra.Command, st *cliState, opts *runOptions) error {
	if st == nil || st.cfg == nil {
		return errors.New("run: missing config (internal error)")
	}
	if opts == nil {
		return errors.New("run: nil options")
	}

	prompts, err := collectPrompts(opts.prompts, opts.promptsFile)
	if err != nil {
		return err
	}
	if len(prompts) == 0 {
		return errors.New("run: no prompts: pass --prompt or --prompts-file")
	}
	for _, name := range opts.metrics {
		if !benchmark.KnownMetric(name) {
			return fmt.Errorf("run: unknown metric %q", name)
		}
	}

	reg, err := registry.NewFromConfig(st.cfg)
	if err != nil {
		return err
	}
	if reg.Len() == 0 {
		return errors.New("run: no models registered: set ANTHROPIC_API_KEY or OPENAI_API_KEY, or configure providers")
	}

	modelIDs := opts.models
	if len(modelIDs) == 0 {
		for _, info := range reg.Models() {
			modelIDs = append(modelIDs, info.ID)
		}
	}

	lb, err := openLeaderboard(st.cfg)
	if err != nil {
		return err
	}
	defer lb.Close()

	results := resultstore.New(st.cfg.Results.MaxRuns, st.cfg.Results.TTL)
	runner := benchmark.NewRunner(reg, results, benchmark.Config{
		Concurrency: st.cfg.Benchmark.Concurrency,
		Timeout:     st.cfg.Benchmark.Timeout,
		MaxTokens:   st.cfg.Benchmark.MaxTokens,
		Temperature: st.cfg.Benchmark.Temperature,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	run, err := runner.RunBenchmark(ctx, prompts, modelIDs, opts.metrics)
	if err != nil {
		return err
	}
	if err := lb.Update(ctx, run); err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(opts.format)) {
	case "", "table":
		return printRunTable(cmd.OutOrStdout(), run)
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	default:
		return fmt.Errorf("run: invalid --format %q (expected table|json)", opts.format)
	}
}

func collectPrompts(inline []string, file string) ([]string, error) {
	prompts := make([]string, 0, len(inline))
	for _, p := range inline {
		if strings.TrimSpace(p) != "" {
			prompts = append(prompts, p)
		}
	}

	file = strings.TrimSpace(file)
	if file == "" {
		return prompts, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("run: open prompts file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			prompts = append(prompts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("run: read prompts file: %w", err)
	}
	return prompts, nil
}

func openLeaderboard(cfg *config.Config) (*leaderboard.Leaderboard, error) {
	if cfg == nil {
		return nil, errors.New("run: nil config")
	}
	return leaderboard.New(cfg.Leaderboard.DBPath, cfg.Leaderboard.CacheTTL)
}

func printRunTable(out io.Writer, run *benchmark.Run) error {
	if run == nil {
		return errors.New("run: nil run")
	}

	fmt.Fprintf(out, "Run %s (%d prompts, %d models)\n\n", run.ID, len(run.Prompts), len(run.ModelIDs))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := "MODEL\tOVERALL"
	for _, m := range run.Metrics {
		header += "\t" + strings.ToUpper(m)
	}
	fmt.Fprintln(tw, header)

	ids := make([]string, 0, len(run.Results))
	for id := range run.Results {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return run.Results[ids[i]].AggregatedMetrics.OverallScore > run.Results[ids[j]].AggregatedMetrics.OverallScore
	})

	for _, id := range ids {
		res := run.Results[id]
		if !res.AggregatedMetrics.HasData() {
			fmt.Fprintf(tw, "%s\t(all prompts failed)\n", id)
			continue
		}
		row := fmt.Sprintf("%s\t%.2f", id, res.AggregatedMetrics.OverallScore)
		for _, m := range run.Metrics {
			agg, ok := res.AggregatedMetrics.Metrics[m]
			if !ok {
				row += "\t-"
				continue
			}
			row += fmt.Sprintf("\t%.2f", agg.AverageScore)
		}
		fmt.Fprintln(tw, row)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(run.Summary.BestPerformers) > 0 {
		fmt.Fprintln(out, "")
		views := make([]string, 0, len(run.Summary.BestPerformers))
		for view := range run.Summary.BestPerformers {
			views = append(views, view)
		}
		sort.Strings(views)
		for _, view := range views {
			fmt.Fprintf(out, "best %s: %s\n", view, run.Summary.BestPerformers[view])
		}
	}
	return nil
}
