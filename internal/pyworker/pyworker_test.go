// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package pyworker

import (
	"strings"
	"testing"
)

func TestSearchScript(t *testing.T) {
	got := SearchScript("Acme Corp", "NYSE", 5)
	for _, want := range []string{
		"search_companies_bridge('Acme Corp', 'NYSE', 5)",
		"scraper_bridge",
		"print(result)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("SearchScript missing %q in %q", want, got)
		}
	}
}

func TestScriptsEscapeQuotes(t *testing.T) {
	got := WebSearchScript("Moody's rating")
	if !strings.Contains(got, `Moody\'s`) {
		t.Errorf("single quote not escaped: %q", got)
	}
	if strings.Contains(got, "Moody's") {
		t.Errorf("raw single quote would break the literal: %q", got)
	}
}

func TestStatusScriptTakesNoArguments(t *testing.T) {
	got := StatusScript()
	if !strings.Contains(got, "get_scraper_status_bridge()") {
		t.Errorf("StatusScript = %q", got)
	}
}
