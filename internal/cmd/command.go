package cmd

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pymux/internal/transport"
)

// newCommandCmd lets a program running inside a pane talk back to its
// own session without knowing the socket path directly, the same way a
// shell script can run `tmux rename-window` from inside a tmux pane.
// It reads $PYMUX, set by procsup.Spawn as "<socket>,<pane_id>" for
// every pane's child process, and forwards the rest of argv as one
// command line over TagRunCommand.
func newCommandCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                "command -- <command-line...>",
		Short:              "Run a pymux command from inside a pane",
		Args:               cobra.MinimumNArgs(1),
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sock, paneID, err := paneEnv()
			if err != nil {
				return err
			}
			conn, err := transport.Dial(sock)
			if err != nil {
				return err
			}
			defer conn.Close()
			return conn.Send(transport.TagRunCommand, transport.RunCommandPayload{
				Command: strings.Join(args, " "),
				PaneID:  paneID,
			})
		},
	}
	return cmd
}

// paneEnv parses $PYMUX ("<socket path>,<pane id>") as set by
// procsup.Spawn's SpawnOpts.Socket/PaneID.
func paneEnv() (sock, paneID string, err error) {
	v := os.Getenv("PYMUX")
	if v == "" {
		return "", "", errUsage("command: not running inside a pymux pane ($PYMUX is unset)")
	}
	idx := strings.LastIndexByte(v, ',')
	if idx < 0 {
		return "", "", errUsage("command: malformed $PYMUX %q", v)
	}
	sock = v[:idx]
	idSuffix := v[idx+1:]
	if _, convErr := strconv.Atoi(idSuffix); convErr != nil {
		return "", "", errUsage("command: malformed $PYMUX %q", v)
	}
	return sock, idSuffix, nil
}
