package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/model-bench/internal/leaderboard"
)

type leaderboardOptions struct {
	metric string
	top    int
	format string
}

func newLeaderboardCmd(st *cliState) *cobra.Command {
	var opts leaderboardOptions

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show cross-run model rankings",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadState(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaderboard(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.metric, "metric", leaderboard.OverallMetric, "ranking view: overall|latency|cost|quality|context_utilization")
	cmd.Flags().IntVar(&opts.top, "top", 20, "top N entries")
	cmd.Flags().StringVar(&opts.format, "format", "table", "output format: table|json")

	return cmd
}

func runLeaderboard(cmd *cobra.Command, st *cliState, opts *leaderboardOptions) error {
	if st == nil || st.cfg == nil {
		return errors.New("leaderboard: missing config (internal error)")
	}
	if opts == nil {
		return errors.New("leaderboard: nil options")
	}

	lb, err := openLeaderboard(st.cfg)
	if err != nil {
		return err
	}
	defer lb.Close()

	entries, err := lb.Rankings(cmd.Context(), opts.metric)
	if err != nil {
		return err
	}
	if opts.top > 0 && len(entries) > opts.top {
		entries = entries[:opts.top]
	}

	switch strings.ToLower(strings.TrimSpace(opts.format)) {
	case "", "table":
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tMODEL\tPROVIDER\tSCORE\tRUNS")
		for i, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%d\n", i+1, e.ModelID, e.Provider, e.Score, e.Runs)
		}
		return tw.Flush()
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	default:
		return fmt.Errorf("leaderboard: invalid --format %q (expected table|json)", opts.format)
	}
}
