// Package cmd wires pymux's cobra subcommands to internal/engine,
// internal/transport, and internal/socketdir. Grounded on the teacher's
// internal/cmd/root.go (one constructor assembling every subcommand onto
// a bare *cobra.Command) and internal/cmd/run.go/daemon.go/ls.go/
// term_colors.go (the fork-daemon-then-attach flow, the hidden daemon
// subcommand, and terminal color-hint detection), generalized from one
// daemon-per-agent to one daemon-per-session with many attachable
// clients. Unlike the teacher, there's no PersistentPreRunE here: the
// teacher's hook resolves a per-agent config directory and refreshes
// its color-hint cache before every subcommand, but pymux has no
// per-invocation config directory to resolve (internal/config is a
// plain in-process struct, not a file on disk) and each subcommand that
// needs color hints already calls detectTerminalColorHints itself.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command with all subcommands.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pymux",
		Short: "A terminal multiplexer",
		Long:  "pymux is a terminal multiplexer: a daemon holds a tree of windows and panes; any number of clients can attach to it over a Unix-domain socket.",
	}

	rootCmd.AddCommand(
		newNewSessionCmd(),
		newAttachCmd(),
		newListSessionsCmd(),
		newServerCmd(),
		newCommandCmd(),
		newKillServerCmd(),
	)

	return rootCmd
}

func errUsage(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
