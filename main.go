// Package main is the entry point for the LedgerLens CLI application.
// It provides financial document analysis through an external worker bridge.
package main

import (
	"ledgerlens/cli/cmd"
)

// main is the entry point for the LedgerLens CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
