package arrangement

// SwapPane exchanges the active pane with its depth-first neighbor:
// forward swaps with the next pane (swap-pane -D), otherwise the
// previous one (swap-pane -U), wrapping at the ends. Weight stays
// attached to the tree slot, not the pane, the same convention Rotate
// uses — only the Node each slot points at changes.
func (w *Window) SwapPane(client ClientID, forward bool) {
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

	active := w.indexOfActive(client, panes)
	other := active - 1
	if forward {
		other = active + 1
	}
	other = ((other % len(panes)) + len(panes)) % len(panes)

	as, ao := slots[active], slots[other]
	as.parent.Children[as.index], ao.parent.Children[ao.index] = ao.parent.Children[ao.index], as.parent.Children[as.index]
	w.Zoom = false
}
