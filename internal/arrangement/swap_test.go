package arrangement

import "testing"

func TestSwapPane_ForwardAndBackwardWrap(t *testing.T) {
	a := New(1)
	p1 := a.NewPane()
	w := a.CreateWindow("c1", p1)
	p2 := a.NewPane()
	w.AddPane("c1", p2, Vertical)
	p3 := a.NewPane()
	w.AddPane("c1", p3, Vertical)

	w.SetActivePane("c1", p1.ID)
	w.SwapPane("c1", true)

	panes := w.Panes()
	if panes[0].ID != p2.ID || panes[1].ID != p1.ID || panes[2].ID != p3.ID {
		t.Fatalf("expected [p2 p1 p3] after forward swap, got %v", idsOf(panes))
	}

	// Swapping backward from the first slot should wrap to the last.
	w.SetActivePane("c1", p2.ID) // p2 now occupies slot 0
	w.SwapPane("c1", false)
	panes = w.Panes()
	if panes[0].ID != p3.ID || panes[2].ID != p2.ID {
		t.Fatalf("expected wraparound swap with last slot, got %v", idsOf(panes))
	}
}

func idsOf(panes []*Pane) []PaneID {
	ids := make([]PaneID, len(panes))
	for i, p := range panes {
		ids[i] = p.ID
	}
	return ids
}
