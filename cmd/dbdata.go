// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"ledgerlens/cli/internal/bridge"
	"ledgerlens/cli/internal/protocol"
	"ledgerlens/cli/internal/pyworker"

	"github.com/spf13/cobra"
)

// dbdataCmd asks the analysis worker for its current database snapshot.
var dbdataCmd = &cobra.Command{
	Use:   "dbdata",
	Short: "Fetch the worker's stored financial data",
	Long: `The dbdata command retrieves the financial line items the analysis worker has
persisted from previous runs and prints them as JSON.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := callAPIWorker(cmd.Context(), protocol.Request{
			Command: protocol.CommandGetDBData,
		}, bridge.Options{
			Timeout: pyworker.DBDataTimeout,
		})
		if err != nil {
			return err
		}
		return printResponse(resp)
	},
}

func init() {
	rootCmd.AddCommand(dbdataCmd)
}
