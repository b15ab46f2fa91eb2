// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package pyworker locates the Python interpreter and the analysis scripts, and
// builds process transports for the operations the CLI delegates to them. The
// long-lived api.py worker handles document analysis, metrics and database
// reads over framed stdin/stdout; the scraper operations run as inline
// one-liners that print a single JSON result.
package pyworker

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"ledgerlens/cli/internal/bridge/procworker"
)

// Timeout budgets per operation kind. Document analysis dominates: large,
// heavily formatted PDFs can take minutes.
const (
	AnalyzeTimeout   = 900 * time.Second
	MetricsTimeout   = 60 * time.Second
	DBDataTimeout    = 30 * time.Second
	MappingTimeout   = 15 * time.Second
	SearchTimeout    = 45 * time.Second
	DetailsTimeout   = 15 * time.Second
	QuoteTimeout     = 15 * time.Second
	WebSearchTimeout = 30 * time.Second
	StatusTimeout    = 15 * time.Second
)

// interpreterCandidates are tried in order.
var interpreterCandidates = []string{"python3", "python"}

// scriptCandidates are the relative locations tried for the analysis API script.
var scriptCandidates = []string{
	"python/api.py",
	"../python/api.py",
}

// FindInterpreter returns the path of the first Python interpreter on PATH.
func FindInterpreter() (string, error) {
	for _, name := range interpreterCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("python not found; please install Python 3.x")
}

// FindScript returns the location of the analysis API script.
func FindScript() (string, error) {
	for _, candidate := range scriptCandidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	cwd, _ := os.Getwd()
	return "", fmt.Errorf("analysis script not found (cwd: %s, tried: %s)", cwd, strings.Join(scriptCandidates, ", "))
}

// NewAPIWorker builds a transport running the analysis API script.
func NewAPIWorker() (*procworker.Worker, error) {
	python, err := FindInterpreter()
	if err != nil {
		return nil, err
	}
	script, err := FindScript()
	if err != nil {
		return nil, err
	}
	return procworker.New(python, script), nil
}

// NewInlineWorker builds a transport running an inline script with -c.
func NewInlineWorker(script string) (*procworker.Worker, error) {
	python, err := FindInterpreter()
	if err != nil {
		return nil, err
	}
	return procworker.New(python, "-c", script), nil
}

// escape guards single-quoted Python string literals in inline scripts.
func escape(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}

// SearchScript builds the company-search one-liner.
func SearchScript(query, exchange string, limit int) string {
	return fmt.Sprintf(
		"import sys; sys.path.extend(['python', '../python']); from scraper_bridge import search_companies_bridge; result = search_companies_bridge('%s', '%s', %d); print(result)",
		escape(query), exchange, limit,
	)
}

// DetailsScript builds the company-details one-liner.
func DetailsScript(symbol, exchange string) string {
	return fmt.Sprintf(
		"import sys; sys.path.extend(['python', '../python']); from scraper_bridge import get_company_details_bridge; result = get_company_details_bridge('%s', '%s'); print(result)",
		escape(symbol), exchange,
	)
}

// QuoteScript builds the stock-quote one-liner.
func QuoteScript(symbol, exchange string) string {
	return fmt.Sprintf(
		"import sys; sys.path.extend(['python', '../python']); from scraper_bridge import get_stock_quote_bridge; result = get_stock_quote_bridge('%s', '%s'); print(result)",
		escape(symbol), exchange,
	)
}

// WebSearchScript builds the web-search one-liner.
func WebSearchScript(query string) string {
	return fmt.Sprintf(
		"import sys; sys.path.extend(['python', '../python']); from scraper_bridge import search_web_bridge; result = search_web_bridge('%s'); print(result)",
		escape(query),
	)
}

// StatusScript builds the scraper-status one-liner.
func StatusScript() string {
	return "import sys; sys.path.extend(['python', '../python']); from scraper_bridge import get_scraper_status_bridge; result = get_scraper_status_bridge(); print(result)"
}
