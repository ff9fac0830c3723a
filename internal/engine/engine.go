// Package engine is the single-threaded consumer that owns every piece
// of session state — the arrangement tree, each pane's process and
// screen, and every attached client's input/overlay state — and drives
// it entirely from the reactor's mailbox. Nothing outside the goroutine
// running Run ever mutates a Session's fields; every other goroutine in
// the process (PTY readers, the client listener, per-client socket
// readers, the ticker, signal watcher) only ever posts events. Grounded
// on the teacher's session.Session/lifecycleLoop (one struct owning the
// VT, clients, and daemon plumbing for its one child process),
// generalized to pymux's many panes and many simultaneous clients per
// spec.md §4.G.
package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"pymux/internal/arrangement"
	"pymux/internal/cmdline"
	"pymux/internal/config"
	"pymux/internal/crashlog"
	"pymux/internal/inputrouter"
	"pymux/internal/procsup"
	"pymux/internal/reactor"
	"pymux/internal/render"
	"pymux/internal/termscreen"
	"pymux/internal/transport"
)

// paneState is the process/screen pair behind one arrangement.Pane. The
// arrangement tree itself only ever carries identity and the small bits
// of per-pane display state (name, copy/clock mode, terminated) —
// everything that actually drives a child program lives here, keyed by
// PaneID, so the arrangement package never needs to import procsup or
// termscreen.
type paneState struct {
	ID          arrangement.PaneID
	Proc        *procsup.Process
	Screen      *termscreen.Screen
	forceRemove bool // set by KillPane: remove on exit even if RemainOnExit is set
}

// windowAreaSize is the pane content area (status line already excluded)
// a window's panes are currently sized to, per spec.md §4.D/§8: the
// intersection of every client currently viewing that window, not a
// single size shared across the whole server.
type windowAreaSize struct{ Rows, Cols int }

// clientState is the per-connection state the engine tracks in addition
// to inputrouter.ClientState: the wire connection itself, the client's
// reported terminal size, and whether start-gui has registered it yet.
type clientState struct {
	ID         arrangement.ClientID
	Conn       *transport.ClientConn
	Input      inputrouter.ClientState
	Rows, Cols int
	registered bool

	Message       string
	messageExpiry time.Time
}

// Session owns one running pymux server: its arrangement of windows and
// panes, every attached client, and the plumbing (reactor, transport,
// router, dispatcher, renderer) that connects them. Exactly one
// goroutine — the one running Run — ever touches the fields below after
// construction.
type Session struct {
	Name    string
	Options config.Options

	Arr      *arrangement.Arrangement
	Server   *transport.Server
	Router   *inputrouter.Router
	Renderer *render.Renderer
	Crash    *crashlog.Logger
	Log      *log.Logger

	shellArgv []string

	reactor *reactor.Reactor
	dispat  *cmdline.Dispatcher

	panes   map[arrangement.PaneID]*paneState
	clients map[arrangement.ClientID]*clientState
	bells   map[arrangement.WindowID]bool

	copyOffsets inputrouter.CopyModeOffsets
	lastSearch  map[arrangement.PaneID]string

	windowSizes map[arrangement.WindowID]windowAreaSize
}

// New constructs a Session ready to Run. shellArgv is the command
// spawned for every new pane (e.g. the user's $SHELL as a login shell);
// srv is a listener already bound via transport.ListenAllocated.
func New(name string, opts config.Options, shellArgv []string, srv *transport.Server, crash *crashlog.Logger, logger *log.Logger) *Session {
	s := &Session{
		Name:        name,
		Options:     opts,
		Arr:         arrangement.New(opts.BaseIndex),
		Server:      srv,
		Renderer:    render.New(),
		Crash:       crash,
		Log:         logger,
		shellArgv:   shellArgv,
		panes:       make(map[arrangement.PaneID]*paneState),
		clients:     make(map[arrangement.ClientID]*clientState),
		bells:       make(map[arrangement.WindowID]bool),
		copyOffsets: make(inputrouter.CopyModeOffsets),
		lastSearch:  make(map[arrangement.PaneID]string),
		windowSizes: make(map[arrangement.WindowID]windowAreaSize),
	}
	s.dispat = cmdline.NewDispatcher(s)
	s.Router = inputrouter.New(decodePrefixKey(opts.Prefix))
	return s
}

// decodePrefixKey parses config.Options.Prefix's tmux-style "C-b" / "C-a"
// notation into the Key the router matches against. Only the C-<letter>
// form is supported; anything else falls back to the spec default.
func decodePrefixKey(prefix string) inputrouter.Key {
	if strings.HasPrefix(prefix, "C-") && len(prefix) == 3 {
		return inputrouter.Key{Ctrl: true, Rune: rune(prefix[2])}
	}
	return inputrouter.DefaultPrefixKey
}

// Run drives the reactor loop until ctx is cancelled or the mailbox is
// closed. It never returns nil by way of a clean shutdown racing a
// pending error — errgroup.Wait reports the first non-nil pump error,
// and context cancellation is not itself an error from Wait's point of
// view since every pump treats ctx.Done() as a normal stop condition.
func (s *Session) Run(ctx context.Context) error {
	s.reactor = reactor.New(ctx, 256)
	s.reactor.WatchListener(s.Server)
	interval := s.Options.StatusInterval
	if interval <= 0 {
		interval = time.Second
	}
	s.reactor.WatchTicker(interval)
	s.reactor.WatchSignals()

	events := s.reactor.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return s.reactor.Wait()
			}
			s.handle(ev)
		case <-ctx.Done():
			return s.reactor.Wait()
		}
	}
}

func (s *Session) handle(ev reactor.Event) {
	switch e := ev.(type) {
	case reactor.NewConnection:
		s.onNewConnection(e)
	case reactor.ClientPacket:
		s.onClientPacket(e)
	case reactor.ClientGone:
		s.onClientGone(e)
	case reactor.PaneOutput:
		s.onPaneOutput(e)
	case reactor.ChildExit:
		s.onChildExit(e)
	case reactor.Tick:
		s.onTick(e)
	case reactor.SIGWINCH:
		// Only meaningful for a standalone embedded instance reading its
		// own controlling terminal directly; a socket-served session gets
		// every client's size over the wire via TagSize instead.
	}
}

func (s *Session) onNewConnection(e reactor.NewConnection) {
	id := arrangement.ClientID(uuid.NewString())
	s.clients[id] = &clientState{ID: id, Conn: e.Conn}
	s.reactor.WatchClient(id, e.Conn)
}

func (s *Session) onClientPacket(e reactor.ClientPacket) {
	cs := s.clients[e.ClientID]
	if cs == nil {
		return
	}
	switch e.Packet.Cmd {
	case transport.TagStartGUI:
		payload, err := transport.DecodeStartGUI(e.Packet.Data)
		if err != nil {
			s.logf("engine: %v", err)
			return
		}
		s.handleStartGUI(cs, payload)
	case transport.TagSize:
		rows, cols, err := transport.DecodeSize(e.Packet.Data)
		if err != nil {
			s.logf("engine: %v", err)
			return
		}
		s.handleSize(cs, rows, cols)
	case transport.TagIn:
		data, err := transport.DecodeIn(e.Packet.Data)
		if err != nil {
			s.logf("engine: %v", err)
			return
		}
		s.handleInput(cs, data)
	case transport.TagRunCommand:
		payload, err := transport.DecodeRunCommand(e.Packet.Data)
		if err != nil {
			s.logf("engine: %v", err)
			return
		}
		s.handleRunCommand(cs, payload)
	}
}

func (s *Session) handleStartGUI(cs *clientState, payload transport.StartGUIPayload) {
	if cs.registered {
		return
	}
	cs.registered = true
	cs.Rows, cs.Cols = payload.Rows, payload.Cols
	if cs.Rows <= 0 {
		cs.Rows = 24
	}
	if cs.Cols <= 0 {
		cs.Cols = 80
	}
	s.Server.Register(cs.ID, cs.Conn)
	if payload.DetachOthers {
		s.Server.DetachAll(cs.ID)
		for id := range s.clients {
			if id != cs.ID {
				delete(s.clients, id)
			}
		}
	}

	if !s.Arr.HasPanes() {
		rows, cols := s.clientContentSize(cs)
		pane, err := s.newPane(rows, cols, payload.OscFg, payload.OscBg)
		if err != nil {
			s.logf("engine: spawn initial pane: %v", err)
			return
		}
		s.Arr.CreateWindow(cs.ID, pane)
	}

	s.applyWindowSizes()
	s.renderAll()
}

func (s *Session) handleSize(cs *clientState, rows, cols int) {
	cs.Rows, cs.Cols = rows, cols
	s.applyWindowSizes()
	s.renderAll()
}

func (s *Session) handleInput(cs *clientState, data []byte) {
	if !cs.registered {
		return
	}
	for _, k := range inputrouter.DecodeKeys(data) {
		if k.Special == inputrouter.MouseEvent {
			s.handleMouse(cs, k)
		}
	}

	ctx := &paneContext{s}
	res := s.Router.HandleInput(cs.ID, data, &cs.Input, ctx, s.dispat)
	if len(res.Forward) > 0 {
		if p := s.Arr.ActivePane(cs.ID); p != nil {
			if ps := s.panes[p.ID]; ps != nil {
				ps.Proc.Write(res.Forward)
			}
		}
	}
	if res.Message != "" {
		cs.Message = res.Message
		cs.messageExpiry = time.Now().Add(3 * time.Second)
	}
	s.renderAll()
}

// handleMouse routes a decoded mouse keystroke: it always focuses the
// pane under the pointer (tmux's mouse-select-pane default), then, if
// that pane's screen has mouse reporting enabled, forwards the event to
// its process translated into pane-relative coordinates. Grounded on
// original_source/pymux/layout.py's mouse_handler walking the rendered
// layout to find the clicked pane before either focusing it or
// forwarding the click through.
func (s *Session) handleMouse(cs *clientState, k inputrouter.Key) {
	w := s.Arr.ActiveWindow(cs.ID)
	if w == nil {
		return
	}
	row, col := k.MouseRow-1, k.MouseCol-1
	paneID, ok := w.PaneAt(row, col)
	if !ok {
		return
	}
	w.SetActivePane(cs.ID, paneID)

	ps := s.panes[paneID]
	if ps == nil {
		return
	}
	mode := ps.Screen.Mode()
	if mode.MouseTracking == termscreen.MouseTrackingOff {
		return
	}
	rect, ok := w.PaneRect(paneID)
	if !ok {
		return
	}
	relRow, relCol := row-rect.Row, col-rect.Col
	if relRow < 0 || relCol < 0 {
		return
	}
	seq := termscreen.FormatMouseEvent(mode.MouseEncoding, k.MouseButton, relCol, relRow, k.MouseRelease)
	if seq != "" {
		ps.Proc.Write([]byte(seq))
	}
}

func (s *Session) handleRunCommand(cs *clientState, payload transport.RunCommandPayload) {
	client := arrangement.ClientID("")
	if cs.registered {
		client = cs.ID
	}
	if msg := s.dispat.Dispatch(client, payload.Command); msg != "" {
		s.logf("engine: run-command %q: %s", payload.Command, msg)
	}
	s.renderAll()
}

func (s *Session) onClientGone(e reactor.ClientGone) {
	cs := s.clients[e.ClientID]
	if cs == nil {
		return
	}
	delete(s.clients, e.ClientID)
	if cs.registered {
		s.Server.Unregister(e.ClientID)
	}
	s.applyWindowSizes()
	s.renderAll()
}

func (s *Session) onPaneOutput(e reactor.PaneOutput) {
	ps := s.panes[e.PaneID]
	if ps == nil {
		return
	}
	ps.Screen.Write(e.Data)
	s.renderAll()
}

func (s *Session) onChildExit(e reactor.ChildExit) {
	ps := s.panes[e.PaneID]
	if ps == nil {
		return
	}
	if p := s.findPane(e.PaneID); p != nil {
		p.Terminated = true
	}
	if ps.forceRemove || !s.Options.RemainOnExit {
		s.removePane(e.PaneID)
	}
	s.renderAll()
}

func (s *Session) onTick(e reactor.Tick) {
	if !s.Options.RemainOnExit {
		s.Arr.SweepTerminated(s.clientIDs())
		s.pruneOrphanPanes()
	}
	s.renderAll()
}

// removePane tears down one pane's process/screen and drops it from the
// arrangement tree, advancing every client's focus the way
// Arrangement.RemovePane already knows how to.
func (s *Session) removePane(id arrangement.PaneID) {
	s.Arr.RemovePane(id, s.clientIDs())
	if ps := s.panes[id]; ps != nil {
		ps.Proc.Close()
	}
	delete(s.panes, id)
	delete(s.copyOffsets, id)
	delete(s.lastSearch, id)
}

// pruneOrphanPanes removes any paneState whose PaneID SweepTerminated
// has already dropped from the arrangement tree — the idempotent safety
// net alongside the ChildExit done-callback path: both may observe the
// same termination, and either may run first.
func (s *Session) pruneOrphanPanes() {
	for id, ps := range s.panes {
		if s.findPane(id) == nil {
			ps.Proc.Close()
			delete(s.panes, id)
			delete(s.copyOffsets, id)
			delete(s.lastSearch, id)
		}
	}
}

// onBell fires from a pane's termscreen.Screen the moment a BEL is
// observed in its output. Called synchronously from within
// onPaneOutput's Screen.Write, so it is already running on the single
// reactor goroutine — no event posting needed.
func (s *Session) onBell(paneID arrangement.PaneID) {
	if s.Options.BellAction == "none" {
		return
	}
	if w := s.findWindowForPane(paneID); w != nil {
		s.bells[w.ID] = true
	}
	if s.Options.BellAction == "audible" {
		for _, cs := range s.clients {
			if cs.registered {
				cs.Conn.SendOut([]byte{0x07})
			}
		}
	}
}

// newPane spawns a pane's child process under a PTY and wires its
// termscreen.Screen, registering both with the reactor and the
// session's pane registry. oscFg/oscBg (possibly empty) carry the
// spawning client's detected terminal palette for OSC 10/11 answers.
func (s *Session) newPane(rows, cols int, oscFg, oscBg string) (*arrangement.Pane, error) {
	pane := s.Arr.NewPane()

	screen := termscreen.New(rows, cols, s.Options.HistoryLimit)
	screen.SetColors(oscFg, oscBg)
	screen.OnBell = func() { s.onBell(pane.ID) }

	proc, err := procsup.Spawn(procsup.SpawnOpts{
		Argv:   s.shellArgv,
		Rows:   rows,
		Cols:   cols,
		PaneID: int(pane.ID),
		Socket: s.Server.SockPath,
		Term:   s.Options.TerminalName,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: spawn pane: %w", err)
	}
	screen.SetUpstream(proc.Ptm)

	s.panes[pane.ID] = &paneState{ID: pane.ID, Proc: proc, Screen: screen}
	s.reactor.WatchPane(pane.ID, proc)

	if name, ok := proc.Name(); ok {
		pane.ProcessName = name
	}
	return pane, nil
}

// applyWindowSizes recomputes each window's shared content size as the
// smallest content area (terminal rows minus the status line, and
// columns) among the clients currently looking at that window — tmux's
// own rule for a window shared by differently sized terminals, scoped
// per window rather than across the whole server, since a small client
// on window B has no business shrinking window A's panes. Resizes that
// window's panes' process and screen to match whenever the size changes.
// A window nobody is currently viewing keeps its last known size.
func (s *Session) applyWindowSizes() {
	for _, w := range s.Arr.Windows {
		rows, cols, any := 0, 0, false
		for cid, cs := range s.clients {
			if !cs.registered || s.Arr.ActiveWindow(cid) != w {
				continue
			}
			r, c := s.clientContentSize(cs)
			if !any || r < rows {
				rows = r
			}
			if !any || c < cols {
				cols = c
			}
			any = true
		}
		if !any {
			continue
		}
		if prev, ok := s.windowSizes[w.ID]; ok && prev.Rows == rows && prev.Cols == cols {
			continue
		}
		s.windowSizes[w.ID] = windowAreaSize{Rows: rows, Cols: cols}
		for _, p := range w.Panes() {
			ps := s.panes[p.ID]
			if ps == nil {
				continue
			}
			ps.Proc.Resize(rows, cols)
			ps.Screen.Resize(rows, cols)
		}
	}
}

// clientContentSize is the pane area available to cs once its own
// status line row is reserved, falling back to a sane default for a
// client that hasn't reported a size yet.
func (s *Session) clientContentSize(cs *clientState) (rows, cols int) {
	rows, cols = cs.Rows-1, cs.Cols
	if rows <= 0 {
		rows = 23
	}
	if cols <= 0 {
		cols = 80
	}
	return rows, cols
}

// windowContentSize returns w's last computed shared content size, or a
// default for a window no sized client has viewed yet (e.g. a brand new
// window about to receive its first AddPane before applyWindowSizes
// next runs).
func (s *Session) windowContentSize(w *arrangement.Window) (rows, cols int) {
	if sz, ok := s.windowSizes[w.ID]; ok {
		return sz.Rows, sz.Cols
	}
	return 23, 80
}

func (s *Session) findWindowForPane(id arrangement.PaneID) *arrangement.Window {
	for _, w := range s.Arr.Windows {
		if w.Pane(id) != nil {
			return w
		}
	}
	return nil
}

func (s *Session) findPane(id arrangement.PaneID) *arrangement.Pane {
	w := s.findWindowForPane(id)
	if w == nil {
		return nil
	}
	return w.Pane(id)
}

func (s *Session) clientIDs() []arrangement.ClientID {
	ids := make([]arrangement.ClientID, 0, len(s.clients))
	for id := range s.clients {
		ids = append(ids, id)
	}
	return ids
}

func (s *Session) logf(format string, args ...any) {
	if s.Log != nil {
		s.Log.Printf(format, args...)
	}
}

// KillAllPanes sends SIGTERM (escalating to SIGKILL after
// procsup.WaitTimeout) to every pane's process, used by server shutdown.
func (s *Session) KillAllPanes() {
	for _, ps := range s.panes {
		ps.Proc.SendSignal(syscall.SIGTERM)
		go escalateToKill(ps.Proc)
	}
}

// SnapshotOptions returns a copy of the session's current options. Must
// be called from the reactor goroutine, like every other Session method.
func (s *Session) SnapshotOptions() config.Options {
	return s.Options
}
