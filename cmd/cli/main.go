// Package main is the entry point for the postplane CLI.
// The CLI is the developer terminal tool for interacting with the postplane API.
package main

import (
	"os"

	"postplane/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
