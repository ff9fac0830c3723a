package arrangement

import "testing"

func TestResize_GrowsFromRightNeighbor(t *testing.T) {
	_, w, panes := buildWindow(3)
	w.SelectLayout(EvenVertical, panes[0].ID)
	w.Root.Weights = []int{1, 4, 1}
	w.SetActivePane(clientA, panes[0].ID)

	if err := w.Resize(clientA, Right, 2); err != nil {
		t.Fatalf("Resize: %v", err)
	}

	if w.Root.Weights[0] != 3 {
		t.Fatalf("expected active pane weight 3, got %d", w.Root.Weights[0])
	}
	if w.Root.Weights[1] != 2 {
		t.Fatalf("expected immediate neighbor to give up the 2 units, got %d", w.Root.Weights[1])
	}
	for i, wt := range w.Root.Weights {
		if wt < 1 {
			t.Fatalf("weight %d went below 1: %v", i, w.Root.Weights)
		}
	}
}

func TestResize_ClampsAndCascades(t *testing.T) {
	_, w, panes := buildWindow(3)
	w.SelectLayout(EvenVertical, panes[0].ID)
	w.Root.Weights = []int{1, 2, 3}
	w.SetActivePane(clientA, panes[0].ID)

	// The immediate neighbor (weight 2) can only give up 1 unit before
	// hitting the floor of 1; the remaining 2 units must cascade to the
	// next neighbor (weight 3).
	if err := w.Resize(clientA, Right, 3); err != nil {
		t.Fatalf("Resize: %v", err)
	}

	want := []int{4, 1, 1}
	for i, wt := range w.Root.Weights {
		if wt != want[i] {
			t.Fatalf("weights = %v, want %v", w.Root.Weights, want)
		}
	}
}

func TestResize_StopsAtFloorWhenAllNeighborsExhausted(t *testing.T) {
	_, w, panes := buildWindow(3)
	w.SelectLayout(EvenVertical, panes[0].ID) // weights [1,1,1], no surplus anywhere
	w.SetActivePane(clientA, panes[0].ID)

	if err := w.Resize(clientA, Right, 5); err != nil {
		t.Fatalf("Resize: %v", err)
	}

	for i, wt := range w.Root.Weights {
		if wt < 1 {
			t.Fatalf("weight %d went below 1: %v", i, w.Root.Weights)
		}
	}
	if w.Root.Weights[0] != 1 {
		t.Fatalf("expected no growth when every neighbor is already at the floor, got %d", w.Root.Weights[0])
	}
}

func TestResize_EdgePaneGrowsFromOppositeSide(t *testing.T) {
	_, w, panes := buildWindow(2)
	w.SelectLayout(EvenVertical, panes[0].ID)
	w.Root.Weights = []int{3, 1}
	// panes[1] is the rightmost; growing further right has no neighbor,
	// so the left boundary should move right instead (pulling weight
	// from panes[0]).
	w.SetActivePane(clientA, panes[1].ID)

	if err := w.Resize(clientA, Right, 1); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if w.Root.Weights[1] != 2 {
		t.Fatalf("expected rightmost pane to grow to weight 2, got %d", w.Root.Weights[1])
	}
	if w.Root.Weights[0] != 2 {
		t.Fatalf("expected left neighbor to give up the unit, got %d", w.Root.Weights[0])
	}
}

func TestResize_NoMatchingSplit(t *testing.T) {
	_, w, panes := buildWindow(2)
	w.SelectLayout(EvenVertical, panes[0].ID) // only a Vertical split exists
	w.SetActivePane(clientA, panes[0].ID)

	if err := w.Resize(clientA, Up, 1); err == nil {
		t.Fatal("expected error resizing along an axis with no matching split")
	}
}

func TestRotate_FullCycle(t *testing.T) {
	_, w, panes := buildWindow(3)
	w.SelectLayout(EvenHorizontal, panes[0].ID)

	w.Rotate(clientA, 1, false, false)

	got := w.Panes()
	want := []*Pane{panes[2], panes[0], panes[1]}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rotate(1) = %v, want %v", got, want)
		}
	}
}

func TestRotate_BeforeOnly(t *testing.T) {
	_, w, panes := buildWindow(3)
	w.SelectLayout(EvenHorizontal, panes[0].ID)
	w.SetActivePane(clientA, panes[1].ID)

	w.Rotate(clientA, 1, true, false)

	got := w.Panes()
	// Only the active pane and its predecessor (indices 0,1) swap.
	want := []*Pane{panes[1], panes[0], panes[2]}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rotate(before) = %v, want %v", got, want)
		}
	}
}

func TestFocusDirectional(t *testing.T) {
	_, w, panes := buildWindow(2)
	w.SelectLayout(EvenVertical, panes[0].ID)
	w.SetRect(panes[0].ID, Rect{Row: 0, Col: 0, Rows: 24, Cols: 40})
	w.SetRect(panes[1].ID, Rect{Row: 0, Col: 40, Rows: 24, Cols: 40})
	w.SetActivePane(clientA, panes[0].ID)

	w.FocusDirectional(clientA, Right)

	if w.ActivePane(clientA) != panes[1].ID {
		t.Fatalf("expected focus to move right to panes[1], got %v", w.ActivePane(clientA))
	}
}

func TestFocusDirectional_NoopAtEdge(t *testing.T) {
	_, w, panes := buildWindow(2)
	w.SelectLayout(EvenVertical, panes[0].ID)
	w.SetRect(panes[0].ID, Rect{Row: 0, Col: 0, Rows: 24, Cols: 40})
	w.SetRect(panes[1].ID, Rect{Row: 0, Col: 40, Rows: 24, Cols: 40})
	w.SetActivePane(clientA, panes[0].ID)

	w.FocusDirectional(clientA, Left)

	if w.ActivePane(clientA) != panes[0].ID {
		t.Fatal("expected focus-left at the left edge to be a no-op")
	}
}
