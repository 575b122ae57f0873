// Package main provides the CLI entry point for potrol.
package main

import (
	"os"

	"github.com/potrol/potrol/cmd/potrol/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
