package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"pymux/internal/config"
	"pymux/internal/crashlog"
	"pymux/internal/engine"
	"pymux/internal/socketdir"
	"pymux/internal/transport"
)

// newServerCmd returns the hidden daemon subcommand: it allocates a
// socket, builds a Session, and blocks running the reactor loop until
// SIGTERM/SIGINT cancels its context; clients detaching and shells
// exiting do not stop it.
// Grounded on the teacher's newDaemonCmd (a hidden cobra command reading
// flags and calling into a RunDaemon-shaped function), generalized from
// one child command per agent to a shell spawned per pane.
func newServerCmd() *cobra.Command {
	var name string
	var shell string

	cmd := &cobra.Command{
		Use:    "_server --name=<name>",
		Short:  "Run as the session daemon (internal)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return errUsage("--name is required")
			}
			return runServer(name, shell)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Session name")
	cmd.Flags().StringVar(&shell, "shell", "", "Shell command run in each new pane (defaults to $SHELL)")
	return cmd
}

func runServer(name, shell string) error {
	srv, err := transport.ListenAllocated()
	if err != nil {
		return fmt.Errorf("pymux server: %w", err)
	}
	defer srv.Close()

	if err := socketdir.RegisterName(name, srv.SockPath, os.Getpid()); err != nil {
		return fmt.Errorf("pymux server: %w", err)
	}
	defer socketdir.UnregisterName(name)

	logFile, err := os.OpenFile(filepath.Join(socketdir.Dir(), name+".log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("pymux server: open log: %w", err)
	}
	defer logFile.Close()
	logger := log.New(logFile, "", log.LstdFlags)

	crash := crashlog.New(crashlog.DefaultPath())
	defer crash.Close()

	argv, err := shellArgv(shell)
	if err != nil {
		return fmt.Errorf("pymux server: %w", err)
	}

	sess := engine.New(name, config.Default(), argv, srv, crash, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigCh
		sess.KillAllPanes()
		cancel()
	}()

	var runErr error
	if crash.Guard(func() { runErr = sess.Run(ctx) }) {
		return fmt.Errorf("pymux server: reactor panicked, see %s", crashlog.DefaultPath())
	}
	return runErr
}

// shellArgv resolves the argv every new pane spawns: an explicit
// --shell string (split the way a shell would split a command line,
// via google/shlex), else $SHELL, else /bin/sh.
func shellArgv(shell string) ([]string, error) {
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		return []string{"/bin/sh"}, nil
	}
	if !strings.ContainsAny(shell, " \t") {
		return []string{shell}, nil
	}
	argv, err := shlex.Split(shell)
	if err != nil {
		return nil, fmt.Errorf("invalid --shell %q: %w", shell, err)
	}
	return argv, nil
}
