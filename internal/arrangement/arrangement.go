package arrangement

// Arrangement owns the ordered list of windows shared by every client of
// a session, and, per client, which window is active. Window and pane IDs
// are assigned from monotonically increasing counters (arena + stable-ID
// ownership, replacing the weak references the original implementation
// used for "previous active" back-pointers).
type Arrangement struct {
	Windows   []*Window
	BaseIndex int

	nextPaneID   PaneID
	nextWindowID WindowID

	clientActiveWindow      map[ClientID]WindowID
	clientPrevActiveWindow  map[ClientID]WindowID
	defaultActiveWindow     WindowID
	defaultPrevActiveWindow WindowID
}

// New returns an empty Arrangement with the given window-numbering base.
func New(baseIndex int) *Arrangement {
	return &Arrangement{
		BaseIndex:              baseIndex,
		clientActiveWindow:     make(map[ClientID]WindowID),
		clientPrevActiveWindow: make(map[ClientID]WindowID),
	}
}

// NewPaneID allocates the next stable pane identifier.
func (a *Arrangement) NewPaneID() PaneID {
	a.nextPaneID++
	return a.nextPaneID
}

// NewPane allocates an ID and returns an empty Pane carrying it.
func (a *Arrangement) NewPane() *Pane {
	return &Pane{ID: a.NewPaneID()}
}

// Window looks up a window by ID, or nil if it no longer exists.
func (a *Arrangement) Window(id WindowID) *Window {
	for _, w := range a.Windows {
		if w.ID == id {
			return w
		}
	}
	return nil
}

// ActiveWindow returns the window this client currently has focused,
// falling back to the arrangement-level default for a client that has
// never selected a window. Returns nil if there are no windows.
func (a *Arrangement) ActiveWindow(client ClientID) *Window {
	id, ok := a.clientActiveWindow[client]
	if !ok {
		id = a.defaultActiveWindow
	}
	return a.Window(id)
}

// SetActiveWindow focuses window id for client.
func (a *Arrangement) SetActiveWindow(client ClientID, id WindowID) {
	if prev, ok := a.clientActiveWindow[client]; ok {
		a.clientPrevActiveWindow[client] = prev
	}
	a.clientActiveWindow[client] = id
	a.defaultPrevActiveWindow = a.defaultActiveWindow
	a.defaultActiveWindow = id
}

// PreviousActiveWindow returns the window this client focused before its
// current one, or false if unknown or since removed.
func (a *Arrangement) PreviousActiveWindow(client ClientID) (*Window, bool) {
	id, ok := a.clientPrevActiveWindow[client]
	if !ok {
		id, ok = a.defaultPrevActiveWindow, a.defaultPrevActiveWindow != 0
	}
	if !ok {
		return nil, false
	}
	w := a.Window(id)
	return w, w != nil
}

// ActivePane returns the active pane of client's active window, or nil.
func (a *Arrangement) ActivePane(client ClientID) *Pane {
	w := a.ActiveWindow(client)
	if w == nil {
		return nil
	}
	return w.Pane(w.ActivePane(client))
}

// CreateWindow creates a new window containing just pane, appends it,
// and focuses it for client.
func (a *Arrangement) CreateWindow(client ClientID, pane *Pane) *Window {
	a.nextWindowID++
	w := newWindow(a.nextWindowID)
	w.AddPane(client, pane, Horizontal)
	a.Windows = append(a.Windows, w)
	a.SetActiveWindow(client, w.ID)
	return w
}

// windowIndex returns the position of w within a.Windows, or -1.
func (a *Arrangement) windowIndex(w *Window) int {
	for i, win := range a.Windows {
		if win == w {
			return i
		}
	}
	return -1
}

// FocusNextWindow cycles client's window focus forward, circularly.
func (a *Arrangement) FocusNextWindow(client ClientID) {
	if len(a.Windows) == 0 {
		return
	}
	idx := a.windowIndex(a.ActiveWindow(client))
	if idx < 0 {
		idx = 0
	}
	a.SetActiveWindow(client, a.Windows[(idx+1)%len(a.Windows)].ID)
}

// FocusPreviousWindow cycles client's window focus backward, circularly.
func (a *Arrangement) FocusPreviousWindow(client ClientID) {
	if len(a.Windows) == 0 {
		return
	}
	idx := a.windowIndex(a.ActiveWindow(client))
	if idx < 0 {
		idx = 0
	}
	a.SetActiveWindow(client, a.Windows[(idx-1+len(a.Windows))%len(a.Windows)].ID)
}

// RemovePane removes pane from whichever window contains it, advancing
// the focus of every affected client and, if its window becomes empty,
// removing the window and advancing every client's window focus.
func (a *Arrangement) RemovePane(id PaneID, clients []ClientID) {
	for _, w := range append([]*Window(nil), a.Windows...) {
		if w.Pane(id) == nil {
			continue
		}
		w.RemovePane(id, clients)
		if !w.HasPanes() {
			a.removeWindow(w, clients, false)
		}
		return
	}
}

// SweepTerminated removes every pane whose process has exited across all
// windows. Idempotent: calling it when nothing has changed since the last
// call is a no-op, satisfying the spec's requirement that this sweep and
// the per-pane done-callback path may both fire for the same pane.
func (a *Arrangement) SweepTerminated(clients []ClientID) {
	for _, w := range append([]*Window(nil), a.Windows...) {
		for _, p := range w.Panes() {
			if p.Terminated {
				w.RemovePane(p.ID, clients)
			}
		}
		if !w.HasPanes() {
			a.removeWindow(w, clients, true)
		}
	}
}

// removeWindow deletes w from the arrangement and advances every
// affected client's window focus. previous selects focus-previous
// (used by the terminated-pane sweep) vs focus-next (used by explicit
// pane removal), matching the two call sites in the original
// implementation.
func (a *Arrangement) removeWindow(w *Window, clients []ClientID, previous bool) {
	for _, c := range clients {
		if a.ActiveWindow(c) == w {
			if previous {
				a.FocusPreviousWindow(c)
			} else {
				a.FocusNextWindow(c)
			}
		}
	}
	idx := a.windowIndex(w)
	if idx < 0 {
		return
	}
	a.Windows = append(a.Windows[:idx], a.Windows[idx+1:]...)
}

// BreakPane removes client's active pane from its current window and
// places it alone in a brand new window, which becomes active for
// client. A no-op if the active window has only one pane.
func (a *Arrangement) BreakPane(client ClientID) {
	w := a.ActiveWindow(client)
	if w == nil || len(w.Panes()) <= 1 {
		return
	}
	pane := w.Pane(w.ActivePane(client))
	if pane == nil {
		return
	}
	w.RemovePane(pane.ID, []ClientID{client})
	a.CreateWindow(client, pane)
}

// HasPanes reports whether any window contains at least one pane.
func (a *Arrangement) HasPanes() bool {
	for _, w := range a.Windows {
		if w.HasPanes() {
			return true
		}
	}
	return false
}
