// Command pymux is the CLI entry point: a thin wrapper around
// internal/cmd's cobra root command.
package main

import (
	"fmt"
	"os"

	"pymux/internal/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pymux:", err)
		os.Exit(1)
	}
}
