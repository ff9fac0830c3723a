// Package reactor implements pymux's single-threaded cooperative event
// loop (spec.md §4.G): one mailbox channel that every I/O source (pane
// PTY readers, the client listener, per-client socket readers, a 1Hz
// ticker, and OS signals) funnels into, consumed by exactly one
// goroutine so that pane/arrangement/render state never needs its own
// locking. Grounded on the teacher's session.lifecycleLoop +
// VT.PipeOutput (one goroutine per PTY reading into a callback) and
// TickStatus (a 1Hz ticker driving periodic renders), generalized from
// the teacher's single child process to N panes per REDESIGN FLAGS'
// "coroutine-style control flow, no implicit global state" note: each
// source gets its own pump goroutine, supervised by an errgroup, but
// every pump only ever writes to the mailbox — it never touches
// arrangement/termscreen state directly.
package reactor

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pymux/internal/arrangement"
	"pymux/internal/procsup"
	"pymux/internal/transport"
)

// Event is the sum type carried on the mailbox. Concrete types below
// are the ones spec.md §4.G's reactor enumerates: PaneOutput,
// ChildExit, ClientFrame (split here into NewConnection/ClientPacket/
// ClientGone for the three distinct things a client connection can
// produce), Tick, and SIGWINCH (fed from signal.Notify; there is no
// SIGCHLD event, since each pane's pump reaps its own child).
type Event interface{ isEvent() }

// PaneOutput carries bytes read from one pane's PTY master.
type PaneOutput struct {
	PaneID arrangement.PaneID
	Data   []byte
}

// ChildExit reports that a pane's child process has terminated.
type ChildExit struct {
	PaneID arrangement.PaneID
	Err    error
}

// NewConnection reports an accepted, not-yet-registered client socket.
type NewConnection struct {
	Conn *transport.ClientConn
}

// ClientPacket carries one decoded packet from an attached client.
type ClientPacket struct {
	ClientID arrangement.ClientID
	Packet   transport.Packet
}

// ClientGone reports that a client's connection read loop ended (EOF or
// error) — the engine should drop that client's state.
type ClientGone struct {
	ClientID arrangement.ClientID
	Err      error
}

// Tick fires once per interval (1Hz per spec.md §4.G) for the status
// clock and coalesced-invalidation redraw.
type Tick struct{ At time.Time }

// SIGWINCH fires in standalone mode when the controlling terminal's
// size changes.
type SIGWINCH struct{}

func (PaneOutput) isEvent()    {}
func (ChildExit) isEvent()     {}
func (NewConnection) isEvent() {}
func (ClientPacket) isEvent()  {}
func (ClientGone) isEvent()    {}
func (Tick) isEvent()          {}
func (SIGWINCH) isEvent()      {}

// Reactor owns the mailbox and the errgroup supervising every pump
// goroutine that feeds it.
type Reactor struct {
	mailbox chan Event
	group   *errgroup.Group
	ctx     context.Context
}

// New creates a Reactor whose mailbox can buffer up to bufSize pending
// events before a pump blocks trying to post one — backpressure here is
// intentional: a pane producing output faster than the single consumer
// goroutine can render simply blocks that pane's pump, not the rest of
// the reactor.
func New(ctx context.Context, bufSize int) *Reactor {
	g, ctx := errgroup.WithContext(ctx)
	return &Reactor{mailbox: make(chan Event, bufSize), group: g, ctx: ctx}
}

// Events returns the channel the consuming goroutine ranges over.
func (r *Reactor) Events() <-chan Event { return r.mailbox }

// post blocks until the event is enqueued or the reactor's context is
// cancelled (shutdown in progress).
func (r *Reactor) post(e Event) {
	select {
	case r.mailbox <- e:
	case <-r.ctx.Done():
	}
}

// Wait blocks until every pump goroutine has returned, propagating the
// first non-nil error (context cancellation from Stop counts as a clean
// shutdown, not a failure, via errgroup's own context wiring).
func (r *Reactor) Wait() error { return r.group.Wait() }

// WatchSignals registers SIGWINCH (standalone-mode resize) on a
// buffered channel and forwards each occurrence onto the mailbox as a
// SIGWINCH event. Go's os/signal.Notify channel is itself the
// idiomatic replacement for a C-style self-pipe here — signal delivery
// into a channel is already async-signal-safe, so there is nothing a
// literal os.Pipe write-from-handler would add — matching the
// teacher's own signal.Notify(sigCh, syscall.SIGWINCH) call in
// client/overlay.go's WatchResize exactly. SIGCHLD is not watched this
// way: each pane's child is reaped by its own WatchPane pump goroutine
// blocking in Process.Wait, the same way the teacher's
// lifecycleLoop blocks on a single VT.Cmd.Wait() per child.
func (r *Reactor) WatchSignals() {
	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGWINCH)
	r.group.Go(func() error {
		for {
			select {
			case <-sigCh:
				r.post(SIGWINCH{})
			case <-r.ctx.Done():
				signal.Stop(sigCh)
				return nil
			}
		}
	})
}

// WatchTicker posts a Tick event once per interval until the reactor's
// context is cancelled.
func (r *Reactor) WatchTicker(interval time.Duration) {
	r.group.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case t := <-ticker.C:
				r.post(Tick{At: t})
			case <-r.ctx.Done():
				return nil
			}
		}
	})
}

// WatchPane spawns the pump that reads proc's PTY master until it
// returns an error (child exited or the pty closed), posting each
// chunk read as a PaneOutput event and a final ChildExit when the read
// loop ends. Grounded directly on VT.PipeOutput's read-loop-into-
// callback shape, generalized from one VT per process to one pump per
// pane.
func (r *Reactor) WatchPane(id arrangement.PaneID, proc *procsup.Process) {
	r.group.Go(func() error {
		buf := make([]byte, 8192)
		for {
			n, err := proc.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				r.post(PaneOutput{PaneID: id, Data: chunk})
			}
			if err != nil {
				exitErr := proc.Wait()
				proc.Close()
				proc.MarkExited(exitErr)
				r.post(ChildExit{PaneID: id, Err: exitErr})
				return nil
			}
		}
	})
}

// WatchListener spawns the pump that accepts new connections on srv
// until it errors (listener closed during shutdown), posting each as a
// NewConnection event.
func (r *Reactor) WatchListener(srv *transport.Server) {
	r.group.Go(func() error {
		for {
			conn, err := srv.Accept()
			if err != nil {
				return nil
			}
			r.post(NewConnection{Conn: conn})
		}
	})
}

// WatchClient spawns the pump that reads framed packets from conn
// (registered under id) until it errors, posting each as a
// ClientPacket and a final ClientGone when the read loop ends.
func (r *Reactor) WatchClient(id arrangement.ClientID, conn *transport.ClientConn) {
	r.group.Go(func() error {
		for {
			pkt, err := conn.ReadPacket()
			if err != nil {
				r.post(ClientGone{ClientID: id, Err: err})
				return nil
			}
			r.post(ClientPacket{ClientID: id, Packet: pkt})
		}
	})
}
