// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ledgerlens/cli/internal/dbwatch"
	"ledgerlens/cli/internal/dsn"
	"ledgerlens/cli/internal/events"
	"ledgerlens/cli/internal/keychain"
	"ledgerlens/cli/internal/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	watchInterval   time.Duration
	watchIterations int
	watchJSON       bool
)

// dbwatchCmd streams financial_items snapshots to the terminal until the
// iteration cap or Ctrl-C.
var dbwatchCmd = &cobra.Command{
	Use:   "dbwatch",
	Short: "Watch the financial items table for changes",
	Long: `The dbwatch command polls the financial_items table and prints each snapshot
as it changes. The watch stops on its own after a bounded number of polls so an
abandoned session cannot hold a connection forever.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var store dsn.SecretStore
		if km, err := keychain.GetManager(); err == nil {
			store = km
		}
		connStr, err := dsn.Resolve(store)
		if err != nil {
			return err
		}

		pool, err := pgxpool.New(cmd.Context(), connStr)
		if err != nil {
			pterm.Printf("❌ Failed to connect to database\n")
			pterm.Println(logging.PresentError("", err))
			return err
		}
		defer pool.Close()

		sink := events.SinkFunc(func(topic string, payload any) {
			switch topic {
			case events.TopicDBUpdate:
				u, ok := payload.(dbwatch.Update)
				if !ok {
					return
				}
				if watchJSON {
					b, err := json.Marshal(u)
					if err == nil {
						fmt.Println(string(b))
					}
					return
				}
				renderUpdate(u)
			case events.TopicDBStopped:
				if !watchJSON {
					pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("watch stopped"))
				}
			}
		})

		w := &dbwatch.Watcher{
			Querier:       dbwatch.NewStore(pool),
			Sink:          sink,
			Interval:      watchInterval,
			MaxIterations: watchIterations,
			Logf:          verboseLogf(),
		}
		if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// renderUpdate prints one snapshot as a table.
func renderUpdate(u dbwatch.Update) {
	rows := pterm.TableData{{"ID", "LABEL", "CURRENT", "PREVIOUS"}}
	for _, r := range u.Rows {
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.ID),
			r.Label,
			formatValue(r.CurrentYear),
			formatValue(r.PreviousYear),
		})
	}
	pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprintf("— %s update #%d —", u.Action, u.Iteration))
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func init() {
	rootCmd.AddCommand(dbwatchCmd)
	dbwatchCmd.Flags().DurationVar(&watchInterval, "interval", dbwatch.DefaultInterval, "Time between polls")
	dbwatchCmd.Flags().IntVar(&watchIterations, "iterations", dbwatch.DefaultMaxIterations, "Number of polls before the watch stops")
	dbwatchCmd.Flags().BoolVar(&watchJSON, "json", false, "Print updates as JSON lines")
}
