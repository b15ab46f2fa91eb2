// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ledgerlens/cli/internal/bridge"
	"ledgerlens/cli/internal/events"
	"ledgerlens/cli/internal/logging"
	"ledgerlens/cli/internal/protocol"
	"ledgerlens/cli/internal/pyworker"
	"ledgerlens/cli/internal/xdg"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	analyzeRawJSON bool
)

// analyzeCmd runs the document analysis worker against one file and renders
// progress live while pages are extracted.
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Extract financial data from a document",
	Long: `The analyze command sends a document (PDF, image, or text) to the analysis
worker and prints the extracted financial line items. Progress is rendered
live; large scanned documents can take several minutes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		req := protocol.Request{
			Command:  protocol.CommandParse,
			FilePath: path,
			FileName: filepath.Base(path),
		}

		// Progress area with a braille spinner, docker CLI style. The sink
		// only mutates shared state under the mutex; the ticker goroutine
		// owns rendering.
		var area *pterm.AreaPrinter
		frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		frameIdx := 0
		var mu sync.Mutex
		lastLine := "starting analysis"
		areaStarted := false

		startArea := func() {
			if areaStarted || analyzeRawJSON {
				return
			}
			cursor.Hide()
			var err error
			area, err = pterm.DefaultArea.WithRemoveWhenDone(true).Start()
			if err != nil {
				cursor.Show()
				return
			}
			areaStarted = true
		}
		stopArea := func() {
			if !areaStarted {
				return
			}
			area.Stop()
			area = nil
			areaStarted = false
			cursor.Show()
		}

		spinStop := make(chan struct{})
		var spinWG sync.WaitGroup
		startArea()
		if areaStarted {
			spinWG.Add(1)
			go func() {
				defer spinWG.Done()
				t := time.NewTicker(120 * time.Millisecond)
				defer t.Stop()
				for {
					select {
					case <-t.C:
						frameIdx++
						mu.Lock()
						line := lastLine
						mu.Unlock()
						area.Update(fmt.Sprintf("%s %s", frames[frameIdx%len(frames)], line))
					case <-spinStop:
						return
					}
				}
			}()
		}

		sink := events.SinkFunc(func(topic string, payload any) {
			p, ok := payload.(*protocol.ProgressUpdate)
			if !ok || p == nil {
				return
			}
			mu.Lock()
			switch {
			case p.TotalPages > 0:
				lastLine = fmt.Sprintf("page %d/%d (%d%%) %s", p.CurrentPage, p.TotalPages, p.Percentage, p.Message)
			case p.Message != "":
				lastLine = p.Message
			}
			mu.Unlock()
		})

		resp, callErr := callAPIWorker(cmd.Context(), req, bridge.Options{
			Timeout:       pyworker.AnalyzeTimeout,
			Classify:      protocol.Classify,
			Sink:          sink,
			ProgressTopic: events.TopicPDFProgress,
			TimeoutHint:   "The document may be very large; try splitting it into smaller files",
			Logf:          verboseLogf(),
		})

		if areaStarted {
			close(spinStop)
			spinWG.Wait()
			stopArea()
		}

		if callErr != nil {
			pterm.Printf("❌ Analysis failed\n")
			pterm.Println(logging.PresentError("", callErr))
			return callErr
		}
		saveLastAnalysis(resp.ExtractedData)

		if analyzeRawJSON {
			printJSON(resp.ExtractedData)
			printJSON(resp.Metadata)
			return nil
		}
		pterm.Println(pterm.NewStyle(pterm.FgGreen).Sprint("✅ Analysis complete: ") + pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(filepath.Base(path)))
		return printResponse(resp)
	},
}

// saveLastAnalysis keeps the most recent extraction in the state dir so
// 'ledgerlens metrics' can pick it up without an explicit file. Best effort.
func saveLastAnalysis(data []byte) {
	if len(data) == 0 {
		return
	}
	dir, err := xdg.StateDir()
	if err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(dir, "last-analysis.json"), data, 0o600)
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeRawJSON, "json", false, "Print raw JSON output without progress rendering")
}
