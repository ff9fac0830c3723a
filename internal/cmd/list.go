package cmd

import (
	"fmt"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"pymux/internal/socketdir"
)

// newListSessionsCmd lists every session with a live, bound socket.
// Grounded on the teacher's newLsCmd (daemon.ListAgents plus a per-agent
// status query), simplified to what socketdir's names registry can
// answer without a dedicated status wire tag: name and liveness only.
func newListSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list-sessions",
		Aliases: []string{"ls"},
		Short:   "List running sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := socketdir.Names()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("no sessions running")
				return nil
			}
			sorted := make([]string, 0, len(names))
			for n := range names {
				sorted = append(sorted, n)
			}
			sort.Strings(sorted)
			for _, n := range sorted {
				fmt.Printf("  \033[32m●\033[0m %s\n", n)
			}
			return nil
		},
	}
}

// newKillServerCmd stops a named session's daemon. The registry's
// recorded pid gets SIGTERM, the same signal the daemon's own signal
// watcher in runServer already treats as a clean-shutdown request for
// every pane's process.
func newKillServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill-session <name>",
		Short: "Terminate a running session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return killSession(args[0])
		},
	}
}

func killSession(name string) error {
	entry, ok := socketdir.LookupEntry(name)
	if !ok {
		return sessionNotFoundError(name)
	}
	if err := syscall.Kill(entry.Pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("kill-session %s: %w", name, err)
	}
	return nil
}
