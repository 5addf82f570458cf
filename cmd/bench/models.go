package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/model-bench/internal/registry"
)

func newModelsCmd(st *cliState) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models available for benchmarking",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadState(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd, st, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format: table|json")

	return cmd
}

func runModels(cmd *cobra.Command, st *cliState, format string) error {
	if st == nil || st.cfg == nil {
		return errors.New("models: missing config (internal error)")
	}

	reg, err := registry.NewFromConfig(st.cfg)
	if err != nil {
		return err
	}
	infos := reg.Models()

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table":
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tPROVIDER\tCONTEXT\tCOST/1K\tMODALITIES")
		for _, info := range infos {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.4f\t%s\n",
				info.ID,
				info.Provider,
				info.MaxContextLength,
				info.CostPer1kTokens,
				strings.Join(info.Modalities, ","),
			)
		}
		return tw.Flush()
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	default:
		return fmt.Errorf("models: invalid --format %q (expected table|json)", format)
	}
}
