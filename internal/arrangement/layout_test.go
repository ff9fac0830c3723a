package arrangement

import "testing"

func buildWindow(n int) (*Arrangement, *Window, []*Pane) {
	a := New(0)
	panes := make([]*Pane, n)
	panes[0] = newTestPane(a, "p0")
	w := a.CreateWindow(clientA, panes[0])
	for i := 1; i < n; i++ {
		panes[i] = newTestPane(a, "p")
		w.AddPane(clientA, panes[i], Horizontal)
	}
	return a, w, panes
}

func samePaneSet(t *testing.T, got, want []*Pane) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("pane count = %d, want %d", len(got), len(want))
	}
	seen := make(map[*Pane]int)
	for _, p := range want {
		seen[p]++
	}
	for _, p := range got {
		seen[p]--
	}
	for p, n := range seen {
		if n != 0 {
			t.Fatalf("pane set mismatch at %v: count delta %d", p, n)
		}
	}
}

func TestSelectLayout_PreservesPaneSet(t *testing.T) {
	_, w, panes := buildWindow(5)

	for _, tag := range []LayoutTag{EvenHorizontal, EvenVertical, MainHorizontal, MainVertical, Tiled} {
		w.SelectLayout(tag, w.ActivePane(clientA))
		samePaneSet(t, w.Panes(), panes)
	}
}

func TestSelectLayout_Idempotent(t *testing.T) {
	_, w, _ := buildWindow(4)

	active := w.ActivePane(clientA)
	w.SelectLayout(MainVertical, active)
	first := describeTree(w.Root)

	w.SelectLayout(MainVertical, active)
	second := describeTree(w.Root)

	if first != second {
		t.Fatalf("select_layout not idempotent:\n%s\nvs\n%s", first, second)
	}
}

func TestSelectLayout_SinglePaneCollapsesToEvenHorizontal(t *testing.T) {
	_, w, _ := buildWindow(1)

	w.SelectLayout(Tiled, w.ActivePane(clientA))

	if w.PrevSelectedLayout != EvenHorizontal {
		t.Fatalf("expected single-pane window to report even-horizontal, got %v", w.PrevSelectedLayout)
	}
	if len(w.Root.Children) != 1 {
		t.Fatalf("expected root with 1 child, got %d", len(w.Root.Children))
	}
}

func TestSelectLayout_EvenHorizontal_IsFlat(t *testing.T) {
	_, w, panes := buildWindow(3)

	w.SelectLayout(EvenHorizontal, w.ActivePane(clientA))

	if w.Root.Orientation != Horizontal || len(w.Root.Children) != 3 {
		t.Fatalf("expected flat horizontal split of 3, got %+v", w.Root)
	}
	for i, c := range w.Root.Children {
		if c != panes[i] {
			t.Fatalf("order mismatch at %d", i)
		}
	}
}

// TestSelectLayout_MainVertical_PutsActualActivePaneFirst guards against
// mainSplit treating DFS index 0 as "active": buildWindow's AddPane calls
// leave the *last*-created pane active, which is never index 0 once more
// than one pane exists, so select-layout must reorder around the real
// active pane rather than reading the tree's existing order.
func TestSelectLayout_MainVertical_PutsActualActivePaneFirst(t *testing.T) {
	_, w, panes := buildWindow(2)

	active := w.ActivePane(clientA)
	if active != panes[1].ID {
		t.Fatalf("expected buildWindow to leave the 2nd pane active, got %v", active)
	}

	w.SelectLayout(MainVertical, active)

	if len(w.Root.Children) != 2 {
		t.Fatalf("expected main-vertical root with 2 children, got %d", len(w.Root.Children))
	}
	first, ok := w.Root.Children[0].(*Pane)
	if !ok || first.ID != active {
		t.Fatalf("expected the active pane (%v) as the main slot, got %+v", active, w.Root.Children[0])
	}
}

func TestSelectLayout_Tiled_GridShape(t *testing.T) {
	_, w, _ := buildWindow(5) // ceil(sqrt(5)) = 3 columns: rows of 3, 2

	w.SelectLayout(Tiled, w.ActivePane(clientA))

	if w.Root.Orientation != Horizontal {
		t.Fatalf("expected outer horizontal split of rows, got %v", w.Root.Orientation)
	}
	if len(w.Root.Children) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(w.Root.Children))
	}
	row0, ok := w.Root.Children[0].(*Split)
	if !ok || len(row0.Children) != 3 {
		t.Fatalf("expected first row of 3 panes, got %+v", w.Root.Children[0])
	}
}

// describeTree renders the tree shape (orientation + pane identities) as a
// string for structural equality comparisons in tests.
func describeTree(n Node) string {
	switch v := n.(type) {
	case *Pane:
		return "P" + string(rune('A'+int(v.ID)))
	case *Split:
		s := "("
		if v.Orientation == Vertical {
			s = "V("
		} else {
			s = "H("
		}
		for i, c := range v.Children {
			if i > 0 {
				s += ","
			}
			s += describeTree(c)
		}
		return s + ")"
	}
	return "?"
}
