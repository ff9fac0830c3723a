package arrangement

// Window is a composition of panes sharing the screen at one time, rooted
// at a single Split. Active-pane tracking is per client (spec §3: "the
// user switches between windows"); a client that never selected a pane in
// this window falls back to the window-level default, which tracks the
// most recently focused pane across all clients.
type Window struct {
	ID                 WindowID
	ChosenName         string
	Root               *Split
	Zoom               bool
	PrevSelectedLayout LayoutTag

	defaultActive     PaneID
	defaultPrevActive PaneID
	clientActive      map[ClientID]PaneID
	clientPrevActive  map[ClientID]PaneID

	lastRects map[PaneID]Rect
}

func newWindow(id WindowID) *Window {
	return &Window{
		ID:               id,
		Root:             &Split{Orientation: Horizontal},
		clientActive:     make(map[ClientID]PaneID),
		clientPrevActive: make(map[ClientID]PaneID),
		lastRects:        make(map[PaneID]Rect),
	}
}

// Name is the effective window name: chosen name, else the active pane's
// name, else the active pane's process basename, else "(noname)".
func (w *Window) Name(client ClientID) string {
	if w.ChosenName != "" {
		return w.ChosenName
	}
	if p := w.Pane(w.ActivePane(client)); p != nil {
		if n := p.EffectiveName(); n != "" {
			return n
		}
	}
	return "(noname)"
}

// Splits returns every Split reachable from the root, in preorder.
func (w *Window) Splits() []*Split {
	var result []*Split
	var collect func(*Split)
	collect = func(s *Split) {
		result = append(result, s)
		for _, c := range s.Children {
			if cs, ok := c.(*Split); ok {
				collect(cs)
			}
		}
	}
	collect(w.Root)
	return result
}

// Panes returns every Pane reachable from the root, left-to-right,
// depth-first.
func (w *Window) Panes() []*Pane {
	var result []*Pane
	var collect func(Node)
	collect = func(n Node) {
		switch v := n.(type) {
		case *Pane:
			result = append(result, v)
		case *Split:
			for _, c := range v.Children {
				collect(c)
			}
		}
	}
	collect(w.Root)
	return result
}

// Pane looks up a pane by ID, or nil if it is not (or no longer) part of
// this window.
func (w *Window) Pane(id PaneID) *Pane {
	for _, p := range w.Panes() {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// HasPanes reports whether the window contains at least one pane.
func (w *Window) HasPanes() bool {
	return len(w.Root.Children) > 0
}

// parentOf returns the Split that directly contains n, and n's index
// within it.
func (w *Window) parentOf(n Node) (*Split, int) {
	for _, s := range w.Splits() {
		if i := s.indexOf(n); i >= 0 {
			return s, i
		}
	}
	return nil, -1
}

// ActivePane returns the pane this client currently has focused, falling
// back to the window-level default for a client that has never focused a
// pane here. Returns 0 if no pane has ever been focused in this window;
// once the last pane is removed, the removed pane's ID is still returned
// (look it up with Pane, which then yields nil).
func (w *Window) ActivePane(client ClientID) PaneID {
	if id, ok := w.clientActive[client]; ok {
		return id
	}
	return w.defaultActive
}

// PreviousActivePane returns the pane this client focused before its
// current one, validated to still exist in this window (an Option<Id>
// per the arena+stable-ID design: a dangling reference reads as "none").
func (w *Window) PreviousActivePane(client ClientID) (PaneID, bool) {
	id, ok := w.clientPrevActive[client]
	if !ok {
		id, ok = w.defaultPrevActive, w.defaultPrevActive != 0
	}
	if !ok || w.Pane(id) == nil {
		return 0, false
	}
	return id, true
}

// SetActivePane focuses pane for client, recording the previous pane and
// updating the window-level default so that clients who have never
// explicitly focused a pane in this window see the most recently focused
// one.
func (w *Window) SetActivePane(client ClientID, id PaneID) {
	if prev, ok := w.clientActive[client]; ok {
		w.clientPrevActive[client] = prev
	}
	w.clientActive[client] = id
	w.defaultPrevActive = w.defaultActive
	w.defaultActive = id
}

// AddPane inserts pane relative to the client's active pane and focuses
// it. If the window is empty, pane becomes the root's only child.
// Otherwise: if the active pane's parent split shares orientation, pane
// is inserted immediately after it in that split; otherwise the active
// pane is wrapped in a new split of orientation, taking over its old
// weight in the grandparent.
func (w *Window) AddPane(client ClientID, pane *Pane, orientation Orientation) {
	active := w.ActivePane(client)
	if !w.HasPanes() {
		w.Root.Orientation = orientation
		w.Root.Children = []Node{pane}
		w.Root.Weights = []int{1}
	} else if activePane := w.Pane(active); activePane != nil {
		parent, idx := w.parentOf(activePane)
		if parent.Orientation == orientation {
			parent.insertAt(idx+1, pane, 1)
		} else {
			oldWeight := parent.Weights[idx]
			newSplit := newSplit(orientation, Node(activePane))
			newSplit.Children = append(newSplit.Children, pane)
			newSplit.Weights = append(newSplit.Weights, 1)
			parent.Children[idx] = newSplit
			parent.Weights[idx] = oldWeight
		}
	} else {
		// Active pane id is stale (e.g. a client that never focused
		// anything in this window); fall back to appending at the root.
		w.Root.insertAt(len(w.Root.Children), pane, 1)
	}

	w.SetActivePane(client, pane.ID)
	w.Zoom = false
}

// RemovePane removes pane from the tree, advancing focus first for every
// client currently focused on it, collapsing any ancestor Split left
// empty or with a single remaining child. clients lists every known
// ClientID so their focus can be advanced; it is safe to pass a superset.
func (w *Window) RemovePane(id PaneID, clients []ClientID) {
	pane := w.Pane(id)
	if pane == nil {
		return
	}

	for _, c := range clients {
		if w.ActivePane(c) == id {
			w.focusNextFrom(c, id)
		}
	}

	parent, idx := w.parentOf(pane)
	parent.removeAt(idx)

	for len(parent.Children) == 0 && parent != w.Root {
		gp, gi := w.parentOf(parent)
		gp.removeAt(gi)
		parent = gp
	}
	for len(parent.Children) == 1 && parent != w.Root {
		gp, gi := w.parentOf(parent)
		gp.Children[gi] = parent.Children[0]
		parent = gp
	}

	w.Zoom = false
}

// focusNextFrom advances client's focus to the pane following from (in
// depth-first order, wrapping), used right before from is removed.
func (w *Window) focusNextFrom(client ClientID, from PaneID) {
	panes := w.Panes()
	idx := -1
	for i, p := range panes {
		if p.ID == from {
			idx = i
			break
		}
	}
	if idx < 0 || len(panes) <= 1 {
		return
	}
	next := panes[(idx+1)%len(panes)]
	w.SetActivePane(client, next.ID)
}

// FocusNext cycles client's focus to the next pane in depth-first order.
func (w *Window) FocusNext(client ClientID) {
	panes := w.Panes()
	if len(panes) == 0 {
		return
	}
	idx := w.indexOfActive(client, panes)
	w.SetActivePane(client, panes[(idx+1)%len(panes)].ID)
}

// FocusPrevious cycles client's focus to the previous pane.
func (w *Window) FocusPrevious(client ClientID) {
	panes := w.Panes()
	if len(panes) == 0 {
		return
	}
	idx := w.indexOfActive(client, panes)
	w.SetActivePane(client, panes[(idx-1+len(panes))%len(panes)].ID)
}

func (w *Window) indexOfActive(client ClientID, panes []*Pane) int {
	active := w.ActivePane(client)
	for i, p := range panes {
		if p.ID == active {
			return i
		}
	}
	return 0
}

// SetRect records the rectangle the renderer most recently allocated to
// pane, used by FocusDirectional to answer "what's to the right of here".
func (w *Window) SetRect(id PaneID, r Rect) {
	w.lastRects[id] = r
}

// PaneAt returns the pane whose last-rendered rectangle contains
// (row, col), for routing a mouse click to the pane under the pointer.
// Like FocusDirectional, it relies on SetRect having been called for the
// current frame; returns false if no recorded rectangle contains the
// point (e.g. the click landed on a border or before any frame rendered).
func (w *Window) PaneAt(row, col int) (PaneID, bool) {
	for _, p := range w.Panes() {
		if r, ok := w.lastRects[p.ID]; ok && r.Contains(row, col) {
			return p.ID, true
		}
	}
	return 0, false
}

// PaneRect returns the rectangle last recorded for id via SetRect, for
// translating a mouse event's absolute screen coordinates into
// pane-relative ones before forwarding it to that pane's process.
func (w *Window) PaneRect(id PaneID) (Rect, bool) {
	r, ok := w.lastRects[id]
	return r, ok
}

// FocusDirectional moves client's focus to the pane adjacent to the
// current one in dir, using the rectangles recorded by the last frame.
// A no-op if there is no pane in that direction, or no rectangle is
// known yet for the active pane.
func (w *Window) FocusDirectional(client ClientID, dir Direction) {
	cur, ok := w.lastRects[w.ActivePane(client)]
	if !ok {
		return
	}
	row, col := cur.Row, cur.Col
	switch dir {
	case Left:
		col = cur.Col - 1
		row = cur.Row
	case Right:
		col = cur.Col + cur.Cols
		row = cur.Row
	case Up:
		row = cur.Row - 1
		col = cur.Col
	case Down:
		row = cur.Row + cur.Rows
		col = cur.Col
	}
	for _, p := range w.Panes() {
		if r, ok := w.lastRects[p.ID]; ok && r.Contains(row, col) {
			w.SetActivePane(client, p.ID)
			return
		}
	}
}
