// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"time"

	"ledgerlens/cli/internal/bridge"
	"ledgerlens/cli/internal/keychain"
	"ledgerlens/cli/internal/protocol"
	"ledgerlens/cli/internal/pyworker"

	"github.com/spf13/cobra"
)

var (
	scrapeExchange string
	scrapeLimit    int
)

// scrapeCmd groups the market-data lookups served by the scraper bridge.
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Look up market data through the scraper bridge",
	Long: `The scrape command family runs short-lived scraper scripts for company search,
company details, stock quotes, and web search. Each lookup spawns its own
worker and returns one JSON document.`,
}

// runScrape executes one inline scraper script and prints its JSON result.
func runScrape(cmd *cobra.Command, script string, timeout time.Duration) error {
	worker, err := pyworker.NewInlineWorker(script)
	if err != nil {
		return err
	}
	// Authenticated data sources read the key from the environment.
	if km, err := keychain.GetManager(); err == nil {
		if key, err := km.LoadMarketAPIKey(); err == nil && key != "" {
			worker.AppendEnv("MARKET_API_KEY=" + key)
		}
	}
	resp, err := bridge.Call(cmd.Context(), worker, struct{}{}, bridge.Options{
		Timeout:  timeout,
		Classify: protocol.ClassifyScrape,
		Logf:     verboseLogf(),
	})
	if err != nil {
		return err
	}
	if resp.Status != protocol.StatusSuccess {
		return printResponse(resp)
	}
	printJSON(resp.ExtractedData)
	return nil
}

var scrapeSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for companies by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape(cmd, pyworker.SearchScript(args[0], scrapeExchange, scrapeLimit), pyworker.SearchTimeout)
	},
}

var scrapeDetailsCmd = &cobra.Command{
	Use:   "details <symbol>",
	Short: "Fetch company details by ticker symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape(cmd, pyworker.DetailsScript(args[0], scrapeExchange), pyworker.DetailsTimeout)
	},
}

var scrapeQuoteCmd = &cobra.Command{
	Use:   "quote <symbol>",
	Short: "Fetch the latest stock quote for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape(cmd, pyworker.QuoteScript(args[0], scrapeExchange), pyworker.QuoteTimeout)
	},
}

var scrapeWebCmd = &cobra.Command{
	Use:   "web <query>",
	Short: "Run a web search through the scraper",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape(cmd, pyworker.WebSearchScript(args[0]), pyworker.WebSearchTimeout)
	},
}

var scrapeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check scraper availability",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape(cmd, pyworker.StatusScript(), pyworker.StatusTimeout)
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.PersistentFlags().StringVar(&scrapeExchange, "exchange", "", "Restrict lookups to one exchange")
	scrapeSearchCmd.Flags().IntVar(&scrapeLimit, "limit", 10, "Maximum number of search results")
	scrapeCmd.AddCommand(scrapeSearchCmd)
	scrapeCmd.AddCommand(scrapeDetailsCmd)
	scrapeCmd.AddCommand(scrapeQuoteCmd)
	scrapeCmd.AddCommand(scrapeWebCmd)
	scrapeCmd.AddCommand(scrapeStatusCmd)
}
