package arrangement

import "fmt"

// ancestorLink is one step of the path from a pane up to the root: the
// split at this level and the index the path takes within it.
type ancestorLink struct {
	split *Split
	index int
}

// pathTo returns the ancestor chain from n up to (and including) the
// root, nearest ancestor first.
func (w *Window) pathTo(n Node) []ancestorLink {
	var path []ancestorLink
	cur := n
	for {
		parent, idx := w.parentOf(cur)
		if parent == nil {
			return path
		}
		path = append(path, ancestorLink{parent, idx})
		cur = parent
	}
}

// Resize shifts delta units of weight onto the ancestor split of
// client's active pane that runs along dir, borrowing from the neighbor
// in that direction (or, if the pane sits at that edge, from the
// opposite side instead). Neighbor weights are clamped to a minimum of
// 1; any remainder that would push a neighbor below 1 cascades to the
// next neighbor in the same direction, then to the opposite side.
func (w *Window) Resize(client ClientID, dir Direction, delta int) error {
	if delta == 0 {
		return nil
	}
	pane := w.Pane(w.ActivePane(client))
	if pane == nil {
		return fmt.Errorf("arrangement: resize: no active pane")
	}

	path := w.pathTo(pane)
	axis := dir.axis()
	forward := dir.forward()

	for _, link := range path {
		if link.split.Orientation != axis {
			continue
		}
		if applyResize(link.split, link.index, delta, forward) {
			w.Zoom = false
			return nil
		}
	}
	// Pane is at the edge in dir; grow from the opposite side instead.
	for _, link := range path {
		if link.split.Orientation != axis {
			continue
		}
		if applyResize(link.split, link.index, delta, !forward) {
			w.Zoom = false
			return nil
		}
	}
	return fmt.Errorf("arrangement: resize: no split along %v to resize", axis)
}

// applyResize grows the child at index by delta, stealing weight from
// neighbors on the forward side (index+1, index+2, ... when forward, else
// index-1, index-2, ...), then from the neighbors on the opposite side for
// whatever the forward side could not give. Returns false if index has no
// neighbor on the forward side at all.
func applyResize(s *Split, index, delta int, forward bool) bool {
	step := 1
	if !forward {
		step = -1
	}
	neighbor := index + step
	if neighbor < 0 || neighbor >= len(s.Children) {
		return false
	}

	remaining := delta
	for remaining > 0 && neighbor >= 0 && neighbor < len(s.Children) {
		take := remaining
		if s.Weights[neighbor]-take < 1 {
			take = s.Weights[neighbor] - 1
		}
		if take > 0 {
			s.Weights[neighbor] -= take
			s.Weights[index] += take
			remaining -= take
		}
		if remaining == 0 {
			break
		}
		neighbor += step
	}
	for n := index - step; remaining > 0 && n >= 0 && n < len(s.Children); n -= step {
		take := remaining
		if s.Weights[n]-take < 1 {
			take = s.Weights[n] - 1
		}
		if take > 0 {
			s.Weights[n] -= take
			s.Weights[index] += take
			remaining -= take
		}
	}
	return true
}

// Rotate cyclically permutes which pane occupies each tree slot by count
// positions; weight stays attached to the slot, not the pane. When
// beforeOnly or afterOnly is set, the permutation is restricted to the
// active pane and its immediate predecessor or successor in depth-first
// order.
func (w *Window) Rotate(client ClientID, count int, beforeOnly, afterOnly bool) {
	type slot struct {
		parent *Split
		index  int
	}
	var slots []slot
	var panes []*Pane
	var collect func(Node, *Split, int)
	collect = func(n Node, parent *Split, idx int) {
		switch v := n.(type) {
		case *Pane:
			slots = append(slots, slot{parent, idx})
			panes = append(panes, v)
		case *Split:
			for i, c := range v.Children {
				collect(c, v, i)
			}
		}
	}
	collect(w.Root, nil, -1)

	if len(panes) < 2 {
		return
	}

	scope := make([]int, len(panes))
	for i := range scope {
		scope[i] = i
	}
	if beforeOnly || afterOnly {
		active := w.indexOfActive(client, panes)
		if beforeOnly {
			scope = []int{(active - 1 + len(panes)) % len(panes), active}
		} else {
			scope = []int{active, (active + 1) % len(panes)}
		}
	}

	n := len(scope)
	rotated := make([]*Pane, n)
	for i := range scope {
		rotated[i] = panes[scope[((i-count)%n+n)%n]]
	}
	for i, p := range rotated {
		s := slots[scope[i]]
		s.parent.Children[s.index] = p
	}
}
