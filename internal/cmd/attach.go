package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pymux/internal/socketdir"
	"pymux/internal/transport"
)

// newAttachCmd attaches this terminal to an already-running session.
func newAttachCmd() *cobra.Command {
	var detachOthers bool

	cmd := &cobra.Command{
		Use:   "attach <name>",
		Short: "Attach to a running session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doAttach(args[0], detachOthers)
		},
	}
	cmd.Flags().BoolVar(&detachOthers, "detach-others", false, "Detach every other client attached to this session")
	return cmd
}

// doAttach resolves name to a live socket, dials it, and runs the
// interactive client loop. Grounded on the teacher's handleAttach/
// readClientInput (internal/session/attach.go): an initial handshake
// packet carrying size and color hints, a full-screen clear plus
// mouse-reporting enable on entry, and a pair of pump goroutines
// swapping the terminal's raw I/O with the framed socket protocol. The
// teacher's own client-side loop (referenced from cmd/run.go as
// doAttach) was not available to read verbatim, so the pump shape below
// is synthesized from golang.org/x/term's standard raw-mode idiom plus
// the wire contract attach.go's server half expects.
func doAttach(name string, detachOthers bool) error {
	path, ok := socketdir.LookupName(name)
	if !ok {
		return sessionNotFoundError(name)
	}

	conn, err := transport.Dial(path)
	if err != nil {
		return fmt.Errorf("attach %s: %w", name, err)
	}
	defer conn.Close()

	stdin := int(os.Stdin.Fd())
	isTTY := isatty.IsTerminal(uintptr(stdin))

	var restore *term.State
	if isTTY {
		restore, err = term.MakeRaw(stdin)
		if err != nil {
			return fmt.Errorf("attach %s: %w", name, err)
		}
		defer term.Restore(stdin, restore)
	}

	rows, cols := 24, 80
	if isTTY {
		if c, r, err := term.GetSize(stdin); err == nil {
			rows, cols = r, c
		}
	}

	hints := detectTerminalColorHints()
	if err := conn.Send(transport.TagStartGUI, transport.StartGUIPayload{
		DetachOthers: detachOthers,
		Rows:         rows,
		Cols:         cols,
		OscFg:        hints.OscFg,
		OscBg:        hints.OscBg,
	}); err != nil {
		return fmt.Errorf("attach %s: %w", name, err)
	}

	// Full-screen redraw, then enable SGR mouse reporting so clicks
	// reach the router's MouseEvent decoding.
	fmt.Fprint(os.Stdout, "\033[2J\033[H\033[?1000h\033[?1006h")
	defer fmt.Fprint(os.Stdout, "\033[?1000l\033[?1006l")

	done := make(chan error, 1)
	go pumpStdinToServer(conn, done)
	go watchResize(conn, stdin, done)

	return pumpServerToStdout(conn)
}

// pumpStdinToServer reads raw terminal input and forwards each chunk as
// a TagIn packet, the client side of transport's "in" tag.
func pumpStdinToServer(conn *transport.ClientConn, done chan<- error) {
	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			if sendErr := conn.Send(transport.TagIn, string(buf[:n])); sendErr != nil {
				done <- sendErr
				return
			}
		}
		if err != nil {
			done <- err
			return
		}
	}
}

// watchResize forwards SIGWINCH as a TagSize packet until done fires
// from the other pump, mirroring the reactor's own WatchSignals pump
// but on the client side of the wire instead of posting a local event.
func watchResize(conn *transport.ClientConn, fd int, done <-chan error) {
	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGWINCH)
	defer signal.Stop(sigCh)
	for {
		select {
		case <-sigCh:
			if cols, rows, err := term.GetSize(fd); err == nil {
				conn.Send(transport.TagSize, transport.EncodeSize(rows, cols))
			}
		case <-done:
			return
		}
	}
}

// pumpServerToStdout reads framed packets until the connection ends or
// the server sends detach/suspend, writing TagOut payloads straight to
// the real terminal.
func pumpServerToStdout(conn *transport.ClientConn) error {
	for {
		pkt, err := conn.ReadPacket()
		if err != nil {
			return nil // server closed the connection; a clean exit
		}
		switch pkt.Cmd {
		case transport.TagOut:
			data, decErr := transport.DecodeOut(pkt.Data)
			if decErr != nil {
				continue
			}
			os.Stdout.Write(data)
		case transport.TagDetach:
			return nil
		case transport.TagSuspend:
			syscall.Kill(os.Getpid(), syscall.SIGTSTP)
		}
	}
}

func sessionNotFoundError(name string) error {
	names, err := socketdir.Names()
	if err != nil || len(names) == 0 {
		return fmt.Errorf("no session named %q (no sessions are running)\n\nStart one with: pymux new-session --name %s", name, name)
	}
	available := make([]string, 0, len(names))
	for n := range names {
		available = append(available, n)
	}
	return fmt.Errorf("no session named %q\n\navailable sessions: %s", name, strings.Join(available, ", "))
}
