package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pymux/internal/socketdir"
)

// newNewSessionCmd forks a detached server process, then either reports
// it as started or immediately attaches. Grounded on the teacher's
// newRunCmd: fork a daemon, then either print a "(detached)" message or
// call doAttach — generalized from h2's named-socket-per-agent scheme to
// pymux's numbered-socket-per-slot scheme plus the names.json registry
// RegisterName/LookupName add on top of it.
func newNewSessionCmd() *cobra.Command {
	var name string
	var shell string
	var detach bool

	cmd := &cobra.Command{
		Use:   "new-session [--name=<name>] [--detach]",
		Short: "Start a new session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				name = generateSessionName()
			}
			if _, ok := socketdir.LookupName(name); ok {
				return errUsage("session %q already exists", name)
			}

			if err := forkServer(name, shell); err != nil {
				return err
			}
			if err := waitForSession(name, 3*time.Second); err != nil {
				return err
			}

			if detach {
				fmt.Fprintf(os.Stderr, "session %q started (detached). Use 'pymux attach %s' to connect.\n", name, name)
				return nil
			}
			return doAttach(name, false)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Session name (auto-generated if omitted)")
	cmd.Flags().StringVar(&shell, "shell", "", "Shell command run in each new pane (defaults to $SHELL)")
	cmd.Flags().BoolVar(&detach, "detach", false, "Don't auto-attach after starting")
	return cmd
}

// forkServer relaunches this executable as the hidden _server
// subcommand, detached from the current controlling terminal and
// session via Setsid, its stdio pointed at /dev/null.
func forkServer(name, shell string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("new-session: %w", err)
	}

	args := []string{"_server", "--name", name}
	if shell != "" {
		args = append(args, "--shell", shell)
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("new-session: %w", err)
	}
	defer devNull.Close()

	sub := exec.Command(exe, args...)
	sub.Stdin, sub.Stdout, sub.Stderr = devNull, devNull, devNull
	sub.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := sub.Start(); err != nil {
		return fmt.Errorf("new-session: spawn daemon: %w", err)
	}
	return sub.Process.Release()
}

// waitForSession polls the names registry until name resolves to a
// bound socket, or timeout elapses.
func waitForSession(name string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, ok := socketdir.LookupName(name); ok {
			return nil
		}
		time.Sleep(25 * time.Millisecond)
	}
	return errUsage("new-session: timed out waiting for %q to start", name)
}

var nameAdjectives = []string{"quiet", "amber", "brisk", "calm", "eager", "solid", "quick", "still"}
var nameNouns = []string{"otter", "delta", "ridge", "maple", "ember", "harbor", "quartz", "summit"}

// generateSessionName produces a short, memorable default name the way
// tmux numbers unnamed sessions, but word-based so it reads cleanly in
// `list-sessions` output.
func generateSessionName() string {
	seed := os.Getpid()
	a := nameAdjectives[seed%len(nameAdjectives)]
	n := nameNouns[(seed/len(nameAdjectives))%len(nameNouns)]
	return fmt.Sprintf("%s-%s", a, n)
}
