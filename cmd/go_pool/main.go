package main

import (
	"os"

	"github.com/andrei-cloud/go_pool/cmd/go_pool/cmd"
)

// main dispatches to the CLI commands.
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
