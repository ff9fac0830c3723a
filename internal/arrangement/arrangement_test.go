package arrangement

import "testing"

const clientA ClientID = "A"

func newTestPane(a *Arrangement, name string) *Pane {
	p := a.NewPane()
	p.ProcessName = name
	return p
}

func TestCreateWindow(t *testing.T) {
	a := New(0)
	p := newTestPane(a, "sh")
	w := a.CreateWindow(clientA, p)

	if a.ActiveWindow(clientA) != w {
		t.Fatal("new window should become active")
	}
	if w.ActivePane(clientA) != p.ID {
		t.Fatal("new pane should become active")
	}
	if len(w.Panes()) != 1 {
		t.Fatalf("expected 1 pane, got %d", len(w.Panes()))
	}
}

func TestAddPane_SplitsSameOrientation(t *testing.T) {
	a := New(0)
	p1 := newTestPane(a, "sh")
	w := a.CreateWindow(clientA, p1)

	p2 := newTestPane(a, "sh")
	w.AddPane(clientA, p2, Horizontal)

	panes := w.Panes()
	if len(panes) != 2 || panes[0] != p1 || panes[1] != p2 {
		t.Fatalf("expected [p1 p2], got %v", panes)
	}
	if w.ActivePane(clientA) != p2.ID {
		t.Fatal("newly added pane should be active")
	}
	if w.Root.Orientation != Horizontal || len(w.Root.Children) != 2 {
		t.Fatalf("expected flat horizontal split of 2, got %+v", w.Root)
	}
}

func TestAddPane_WrapsDifferentOrientation(t *testing.T) {
	a := New(0)
	p1 := newTestPane(a, "sh")
	w := a.CreateWindow(clientA, p1)

	p2 := newTestPane(a, "sh")
	w.AddPane(clientA, p2, Vertical)

	if w.Root.Orientation != Horizontal {
		t.Fatalf("root orientation changed unexpectedly: %v", w.Root.Orientation)
	}
	if len(w.Root.Children) != 1 {
		t.Fatalf("expected root to still have 1 child (the wrapping split), got %d", len(w.Root.Children))
	}
	inner, ok := w.Root.Children[0].(*Split)
	if !ok {
		t.Fatalf("expected a wrapping Split, got %T", w.Root.Children[0])
	}
	if inner.Orientation != Vertical || len(inner.Children) != 2 {
		t.Fatalf("expected vertical split of 2, got %+v", inner)
	}
}

func TestNoAdjacentSameOrientationSplits(t *testing.T) {
	a := New(0)
	p1 := newTestPane(a, "a")
	w := a.CreateWindow(clientA, p1)

	p2 := newTestPane(a, "b")
	w.AddPane(clientA, p2, Vertical)
	p3 := newTestPane(a, "c")
	w.AddPane(clientA, p3, Horizontal)
	p4 := newTestPane(a, "d")
	w.AddPane(clientA, p4, Vertical)

	for _, s := range w.Splits() {
		for _, c := range s.Children {
			if cs, ok := c.(*Split); ok && cs.Orientation == s.Orientation {
				t.Fatalf("found adjacent same-orientation splits: parent %v child %v", s, cs)
			}
		}
	}
}

func TestRemovePane_CollapsesSingleChildSplit(t *testing.T) {
	a := New(0)
	p1 := newTestPane(a, "a")
	w := a.CreateWindow(clientA, p1)
	p2 := newTestPane(a, "b")
	w.AddPane(clientA, p2, Vertical)

	w.RemovePane(p2.ID, []ClientID{clientA})

	if len(w.Panes()) != 1 || w.Panes()[0] != p1 {
		t.Fatalf("expected only p1 left, got %v", w.Panes())
	}
	if _, ok := w.Root.Children[0].(*Split); ok {
		t.Fatal("expected collapsed single-child split to vanish")
	}
}

func TestRemovePane_AdvancesFocus(t *testing.T) {
	a := New(0)
	p1 := newTestPane(a, "a")
	w := a.CreateWindow(clientA, p1)
	p2 := newTestPane(a, "b")
	w.AddPane(clientA, p2, Horizontal)

	w.RemovePane(p2.ID, []ClientID{clientA})

	if w.ActivePane(clientA) != p1.ID {
		t.Fatalf("expected focus to advance to p1, got %v", w.ActivePane(clientA))
	}
}

func TestArrangement_RemovePane_RemovesEmptyWindow(t *testing.T) {
	a := New(0)
	p1 := newTestPane(a, "a")
	w1 := a.CreateWindow(clientA, p1)
	p2 := newTestPane(a, "b")
	w2 := a.CreateWindow(clientA, p2)

	a.RemovePane(p1.ID, []ClientID{clientA})

	if len(a.Windows) != 1 || a.Windows[0] != w2 {
		t.Fatalf("expected only w2 to remain, got %v", a.Windows)
	}
	if a.ActiveWindow(clientA) != w2 {
		t.Fatal("expected focus to move to remaining window")
	}
	_ = w1
}

func TestBreakPane(t *testing.T) {
	a := New(0)
	p1 := newTestPane(a, "a")
	w := a.CreateWindow(clientA, p1)
	p2 := newTestPane(a, "b")
	w.AddPane(clientA, p2, Horizontal)

	a.BreakPane(clientA)

	if len(a.Windows) != 2 {
		t.Fatalf("expected 2 windows after break, got %d", len(a.Windows))
	}
	if len(w.Panes()) != 1 || w.Panes()[0] != p1 {
		t.Fatalf("expected original window to keep only p1, got %v", w.Panes())
	}
	newWin := a.ActiveWindow(clientA)
	if newWin == w || len(newWin.Panes()) != 1 || newWin.Panes()[0] != p2 {
		t.Fatalf("expected new window containing only p2, got %v", newWin)
	}
}

func TestBreakPane_NoopOnSinglePane(t *testing.T) {
	a := New(0)
	p1 := newTestPane(a, "a")
	a.CreateWindow(clientA, p1)

	a.BreakPane(clientA)

	if len(a.Windows) != 1 {
		t.Fatalf("expected break-pane to be a no-op with 1 pane, got %d windows", len(a.Windows))
	}
}

func TestSweepTerminated_Idempotent(t *testing.T) {
	a := New(0)
	p1 := newTestPane(a, "a")
	w := a.CreateWindow(clientA, p1)
	p2 := newTestPane(a, "b")
	w.AddPane(clientA, p2, Horizontal)
	p2.Terminated = true

	a.SweepTerminated([]ClientID{clientA})
	if len(w.Panes()) != 1 {
		t.Fatalf("expected terminated pane removed, got %v", w.Panes())
	}

	// Second sweep must be a no-op: the pane is already gone.
	a.SweepTerminated([]ClientID{clientA})
	if len(w.Panes()) != 1 {
		t.Fatalf("expected second sweep to be a no-op, got %v", w.Panes())
	}
}

func TestSweepTerminated_RemovesEmptyWindow(t *testing.T) {
	a := New(0)
	p1 := newTestPane(a, "a")
	a.CreateWindow(clientA, p1)
	p1.Terminated = true

	a.SweepTerminated([]ClientID{clientA})

	if len(a.Windows) != 0 {
		t.Fatalf("expected window removed once its only pane terminated, got %d", len(a.Windows))
	}
}

func TestFocusNextPrevious_Cycles(t *testing.T) {
	a := New(0)
	p1 := newTestPane(a, "a")
	w := a.CreateWindow(clientA, p1)
	p2 := newTestPane(a, "b")
	w.AddPane(clientA, p2, Horizontal)
	p3 := newTestPane(a, "c")
	w.AddPane(clientA, p3, Horizontal)

	w.SetActivePane(clientA, p1.ID)
	w.FocusNext(clientA)
	if w.ActivePane(clientA) != p2.ID {
		t.Fatalf("expected p2 active, got %v", w.ActivePane(clientA))
	}
	w.FocusNext(clientA)
	if w.ActivePane(clientA) != p3.ID {
		t.Fatalf("expected p3 active, got %v", w.ActivePane(clientA))
	}
	w.FocusNext(clientA)
	if w.ActivePane(clientA) != p1.ID {
		t.Fatal("expected focus to wrap around to p1")
	}
	w.FocusPrevious(clientA)
	if w.ActivePane(clientA) != p3.ID {
		t.Fatal("expected focus-previous to wrap backward to p3")
	}
}

func TestPerClientActivePane_Independent(t *testing.T) {
	const clientB ClientID = "B"
	a := New(0)
	p1 := newTestPane(a, "a")
	w := a.CreateWindow(clientA, p1)
	p2 := newTestPane(a, "b")
	w.AddPane(clientA, p2, Horizontal)

	// clientB never explicitly focused a pane here; it should see the
	// window-level default (whatever clientA most recently focused).
	if w.ActivePane(clientB) != p2.ID {
		t.Fatalf("expected clientB to default to p2, got %v", w.ActivePane(clientB))
	}

	w.SetActivePane(clientB, p1.ID)
	if w.ActivePane(clientA) != p2.ID {
		t.Fatal("clientA's focus should be unaffected by clientB's")
	}
	if w.ActivePane(clientB) != p1.ID {
		t.Fatal("clientB should now be focused on p1")
	}
}
