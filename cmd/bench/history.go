package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHistoryCmd(st *cliState) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "history <model-id>",
		Short: "Show a model's scores across past runs",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadState(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, st, args[0], format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format: table|json")

	return cmd
}

func runHistory(cmd *cobra.Command, st *cliState, modelID, format string) error {
	if st == nil || st.cfg == nil {
		return errors.New("history: missing config (internal error)")
	}
	if strings.TrimSpace(modelID) == "" {
		return errors.New("history: missing model id")
	}

	lb, err := openLeaderboard(st.cfg)
	if err != nil {
		return err
	}
	defer lb.Close()

	points, err := lb.ModelHistory(cmd.Context(), modelID)
	if err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table":
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tRUN\tOVERALL")
		for _, p := range points {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\n",
				p.EvalDate.UTC().Format("2006-01-02 15:04:05Z"),
				p.RunID,
				p.Scores["overall"],
			)
		}
		return tw.Flush()
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(points)
	default:
		return fmt.Errorf("history: invalid --format %q (expected table|json)", format)
	}
}
