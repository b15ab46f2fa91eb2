// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"ledgerlens/cli/internal/bridge"
	"ledgerlens/cli/internal/protocol"
	"ledgerlens/cli/internal/pyworker"
	"ledgerlens/cli/internal/xdg"

	"github.com/spf13/cobra"
)

// metricsCmd recomputes financial metrics from previously extracted line items.
var metricsCmd = &cobra.Command{
	Use:   "metrics [items.json]",
	Short: "Calculate financial metrics from extracted line items",
	Long: `The metrics command reads a JSON file of extracted line items and asks the
analysis worker to recompute derived metrics (totals, ratios, year-over-year
changes) without re-reading the source document. With no file argument it uses
the most recent 'ledgerlens analyze' result.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			dir, err := xdg.StateDir()
			if err != nil {
				return err
			}
			path = filepath.Join(dir, "last-analysis.json")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if len(args) == 0 {
				return fmt.Errorf("no previous analysis found; run 'ledgerlens analyze' first or pass an items file")
			}
			return fmt.Errorf("cannot read items file: %w", err)
		}
		if !json.Valid(data) {
			return fmt.Errorf("%s is not valid JSON", path)
		}

		resp, err := callAPIWorker(cmd.Context(), protocol.Request{
			Command: protocol.CommandCalculateMetrics,
			Items:   string(data),
		}, bridge.Options{
			Timeout: pyworker.MetricsTimeout,
		})
		if err != nil {
			return err
		}
		return printResponse(resp)
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}
