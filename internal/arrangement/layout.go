package arrangement

import "math"

// SelectLayout rebuilds the window's tree from scratch, preserving pane
// identity and DFS order, arranging them according to tag. active is the
// pane main-horizontal/main-vertical treats as "active" for the purpose
// of occupying the main slot (spec §4.C: main-horizontal is
// HSplit([active, VSplit(others...)])); the other layouts ignore it.
// Weights reset to 1 throughout; the engine may then redistribute
// evenly. A window with a single pane always collapses to
// EvenHorizontal, whichever tag was requested.
func (w *Window) SelectLayout(tag LayoutTag, active PaneID) {
	panes := w.Panes()
	if len(panes) == 0 {
		w.PrevSelectedLayout = tag
		return
	}
	if len(panes) == 1 {
		w.Root = &Split{Orientation: Horizontal, Children: []Node{panes[0]}, Weights: []int{1}}
		w.PrevSelectedLayout = EvenHorizontal
		w.Zoom = false
		return
	}

	switch tag {
	case EvenHorizontal:
		w.Root = evenSplit(Horizontal, panes)
	case EvenVertical:
		w.Root = evenSplit(Vertical, panes)
	case MainHorizontal:
		w.Root = mainSplit(Horizontal, orderActiveFirst(panes, active))
	case MainVertical:
		w.Root = mainSplit(Vertical, orderActiveFirst(panes, active))
	case Tiled:
		w.Root = tiledSplit(panes)
	default:
		w.Root = evenSplit(Horizontal, panes)
	}
	w.PrevSelectedLayout = tag
	w.Zoom = false
}

// orderActiveFirst returns panes with the pane identified by active
// moved to the front, the rest kept in their original relative order.
// If active isn't found among panes (e.g. a stale ID), panes is
// returned unchanged.
func orderActiveFirst(panes []*Pane, active PaneID) []*Pane {
	idx := -1
	for i, p := range panes {
		if p.ID == active {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return panes
	}
	ordered := make([]*Pane, 0, len(panes))
	ordered = append(ordered, panes[idx])
	ordered = append(ordered, panes[:idx]...)
	ordered = append(ordered, panes[idx+1:]...)
	return ordered
}

func evenSplit(o Orientation, panes []*Pane) *Split {
	s := &Split{Orientation: o}
	for _, p := range panes {
		s.Children = append(s.Children, p)
		s.Weights = append(s.Weights, 1)
	}
	return s
}

// mainSplit produces outer([active, inner(rest...)]) where outer runs
// along o and inner runs along the perpendicular axis.
func mainSplit(o Orientation, panes []*Pane) *Split {
	active, rest := panes[0], panes[1:]
	if len(rest) == 0 {
		return &Split{Orientation: o, Children: []Node{active}, Weights: []int{1}}
	}
	inner := evenSplit(perpendicular(o), rest)
	return &Split{
		Orientation: o,
		Children:    []Node{active, inner},
		Weights:     []int{1, 1},
	}
}

func perpendicular(o Orientation) Orientation {
	if o == Horizontal {
		return Vertical
	}
	return Horizontal
}

// tiledSplit arranges panes into a grid of ceil(sqrt(N)) columns: an
// outer Horizontal split of rows, each row an inner Vertical split of
// the panes in that row.
func tiledSplit(panes []*Pane) *Split {
	n := len(panes)
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	if cols < 1 {
		cols = 1
	}

	outer := &Split{Orientation: Horizontal}
	for i := 0; i < n; i += cols {
		end := i + cols
		if end > n {
			end = n
		}
		row := panes[i:end]
		if len(row) == 1 {
			outer.Children = append(outer.Children, row[0])
		} else {
			outer.Children = append(outer.Children, evenSplit(Vertical, row))
		}
		outer.Weights = append(outer.Weights, 1)
	}
	return outer
}
