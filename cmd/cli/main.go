// Package main is the entry point for the playprice CLI.
package main

import (
	"os"

	"playprice/cmd/cli/cmd"
	"playprice/internal/logging"
)

func main() {
	err := cmd.Execute()
	logging.Sync()
	if err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
