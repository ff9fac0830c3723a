package engine

import (
	"fmt"
	"syscall"
	"time"

	"pymux/internal/arrangement"
	"pymux/internal/procsup"
)

// This file implements cmdline.Engine: the verb set the command
// dispatcher (bound keys, the ":" prompt, and run-command packets
// forwarded from the CLI) can invoke against a running Session. Every
// method here runs on the reactor goroutine, called synchronously from
// Dispatcher.Dispatch inside handleInput/handleRunCommand.

func (s *Session) SplitWindow(client arrangement.ClientID, vertical bool) error {
	w := s.Arr.ActiveWindow(client)
	if w == nil {
		return fmt.Errorf("split-window: no active window")
	}
	rows, cols := s.windowContentSize(w)
	pane, err := s.newPane(rows, cols, "", "")
	if err != nil {
		return fmt.Errorf("split-window: %w", err)
	}
	orientation := arrangement.Horizontal
	if vertical {
		orientation = arrangement.Vertical
	}
	w.AddPane(client, pane, orientation)
	s.applyWindowSizes()
	return nil
}

func (s *Session) NewWindow(client arrangement.ClientID) error {
	rows, cols := 23, 80
	if cs := s.clients[client]; cs != nil {
		rows, cols = s.clientContentSize(cs)
	}
	pane, err := s.newPane(rows, cols, "", "")
	if err != nil {
		return fmt.Errorf("new-window: %w", err)
	}
	s.Arr.CreateWindow(client, pane)
	s.applyWindowSizes()
	return nil
}

func (s *Session) NextWindow(client arrangement.ClientID) error {
	s.Arr.FocusNextWindow(client)
	return nil
}

func (s *Session) PreviousWindow(client arrangement.ClientID) error {
	s.Arr.FocusPreviousWindow(client)
	return nil
}

func (s *Session) SelectWindowIndex(client arrangement.ClientID, index int) error {
	want := index - s.Arr.BaseIndex
	if want < 0 || want >= len(s.Arr.Windows) {
		return fmt.Errorf("select-window: no window %d", index)
	}
	s.Arr.SetActiveWindow(client, s.Arr.Windows[want].ID)
	return nil
}

func (s *Session) LastWindow(client arrangement.ClientID) error {
	w, ok := s.Arr.PreviousActiveWindow(client)
	if !ok {
		return fmt.Errorf("last-window: no previous window")
	}
	s.Arr.SetActiveWindow(client, w.ID)
	return nil
}

func (s *Session) SelectPaneNext(client arrangement.ClientID) error {
	w := s.Arr.ActiveWindow(client)
	if w == nil {
		return fmt.Errorf("select-pane: no active window")
	}
	w.FocusNext(client)
	return nil
}

func (s *Session) SelectPaneDirection(client arrangement.ClientID, dir arrangement.Direction) error {
	w := s.Arr.ActiveWindow(client)
	if w == nil {
		return fmt.Errorf("select-pane: no active window")
	}
	w.FocusDirectional(client, dir)
	return nil
}

func (s *Session) LastPane(client arrangement.ClientID) error {
	w := s.Arr.ActiveWindow(client)
	if w == nil {
		return fmt.Errorf("last-pane: no active window")
	}
	id, ok := w.PreviousActivePane(client)
	if !ok {
		return fmt.Errorf("last-pane: no previous pane")
	}
	w.SetActivePane(client, id)
	return nil
}

func (s *Session) RenameWindow(client arrangement.ClientID, name string) error {
	w := s.Arr.ActiveWindow(client)
	if w == nil {
		return fmt.Errorf("rename-window: no active window")
	}
	w.ChosenName = name
	return nil
}

func (s *Session) RenamePane(client arrangement.ClientID, name string) error {
	p := s.Arr.ActivePane(client)
	if p == nil {
		return fmt.Errorf("rename-pane: no active pane")
	}
	p.Name = name
	return nil
}

// KillPane tears down the client's active pane immediately: SIGTERM is
// sent right away, and forceRemove means the pane is dropped from the
// arrangement as soon as ChildExit arrives regardless of RemainOnExit.
// If the process hasn't exited within procsup.WaitTimeout, a watchdog
// escalates to SIGKILL — grounded on the teacher's lifecycleLoop
// shutdown path (SIGTERM then a timed SIGKILL), generalized to one pane
// instead of the whole session. The watchdog only ever touches the OS
// process, never reactor/arrangement state, preserving the single
// reactor-goroutine invariant.
func (s *Session) KillPane(client arrangement.ClientID) error {
	p := s.Arr.ActivePane(client)
	if p == nil {
		return fmt.Errorf("kill-pane: no active pane")
	}
	ps := s.panes[p.ID]
	if ps == nil {
		return fmt.Errorf("kill-pane: pane has no process")
	}
	ps.forceRemove = true
	ps.Proc.SendSignal(syscall.SIGTERM)
	go escalateToKill(ps.Proc)
	return nil
}

func escalateToKill(proc *procsup.Process) {
	time.Sleep(procsup.WaitTimeout)
	if done, _ := proc.Terminated(); !done {
		proc.SendSignal(syscall.SIGKILL)
	}
}

func (s *Session) BreakPane(client arrangement.ClientID) error {
	s.Arr.BreakPane(client)
	return nil
}

func (s *Session) DetachClient(client arrangement.ClientID) error {
	cs := s.clients[client]
	if cs == nil {
		return fmt.Errorf("detach-client: unknown client")
	}
	cs.Conn.Send("detach", nil)
	return nil
}

func (s *Session) SuspendClient(client arrangement.ClientID) error {
	cs := s.clients[client]
	if cs == nil {
		return fmt.Errorf("suspend-client: unknown client")
	}
	cs.Conn.Send("suspend", nil)
	return nil
}

func (s *Session) ClockMode(client arrangement.ClientID) error {
	p := s.Arr.ActivePane(client)
	if p == nil {
		return fmt.Errorf("clock-mode: no active pane")
	}
	p.ClockMode = !p.ClockMode
	return nil
}

// CopyMode enters copy mode on the client's active pane, starting the
// scroll offset at the live view (0). Toggling a second time (the 'q'/
// Ctrl-C exit path is handled by ExitCopyMode instead, reached from
// inputrouter.Router.handleCopyMode, not from here) is a no-op.
func (s *Session) CopyMode(client arrangement.ClientID) error {
	p := s.Arr.ActivePane(client)
	if p == nil {
		return fmt.Errorf("copy-mode: no active pane")
	}
	if p.CopyMode {
		return nil
	}
	p.CopyMode = true
	s.copyOffsets[p.ID] = 0
	return nil
}

func (s *Session) NextLayout(client arrangement.ClientID) error {
	w := s.Arr.ActiveWindow(client)
	if w == nil {
		return fmt.Errorf("next-layout: no active window")
	}
	w.SelectLayout(arrangement.NextLayoutTag(w.PrevSelectedLayout), w.ActivePane(client))
	return nil
}

func (s *Session) SelectLayout(client arrangement.ClientID, tag arrangement.LayoutTag) error {
	w := s.Arr.ActiveWindow(client)
	if w == nil {
		return fmt.Errorf("select-layout: no active window")
	}
	w.SelectLayout(tag, w.ActivePane(client))
	return nil
}

func (s *Session) ToggleZoom(client arrangement.ClientID) error {
	w := s.Arr.ActiveWindow(client)
	if w == nil {
		return fmt.Errorf("toggle-zoom: no active window")
	}
	w.Zoom = !w.Zoom
	return nil
}

func (s *Session) SwapPane(client arrangement.ClientID, forward bool) error {
	w := s.Arr.ActiveWindow(client)
	if w == nil {
		return fmt.Errorf("swap-pane: no active window")
	}
	w.SwapPane(client, forward)
	return nil
}

func (s *Session) RotateWindow(client arrangement.ClientID, count int, beforeOnly, afterOnly bool) error {
	w := s.Arr.ActiveWindow(client)
	if w == nil {
		return fmt.Errorf("rotate-window: no active window")
	}
	w.Rotate(client, count, beforeOnly, afterOnly)
	return nil
}

func (s *Session) ResizePane(client arrangement.ClientID, dir arrangement.Direction, delta int) error {
	w := s.Arr.ActiveWindow(client)
	if w == nil {
		return fmt.Errorf("resize-pane: no active window")
	}
	return w.Resize(client, dir, delta)
}

func (s *Session) SetOption(name, value string) error {
	opts, err := s.Options.Set(name, value)
	if err != nil {
		return err
	}
	s.Options = opts
	return nil
}
