package engine

import (
	"strings"

	"pymux/internal/arrangement"
	"pymux/internal/termscreen"
)

// paneContext implements inputrouter.PaneContext against a Session: the
// few questions the router needs answered about a client's active pane
// without owning arrangement/screen state itself.
type paneContext struct {
	s *Session
}

func (c *paneContext) Mode(client arrangement.ClientID) termscreen.ModeState {
	p := c.s.Arr.ActivePane(client)
	if p == nil {
		return termscreen.ModeState{}
	}
	ps := c.s.panes[p.ID]
	if ps == nil {
		return termscreen.ModeState{}
	}
	return ps.Screen.Mode()
}

func (c *paneContext) InCopyMode(client arrangement.ClientID) bool {
	p := c.s.Arr.ActivePane(client)
	return p != nil && p.CopyMode
}

func (c *paneContext) ExitCopyMode(client arrangement.ClientID) {
	p := c.s.Arr.ActivePane(client)
	if p == nil {
		return
	}
	p.CopyMode = false
	delete(c.s.copyOffsets, p.ID)
}

func (c *paneContext) ScrollCopyMode(client arrangement.ClientID, delta int) {
	p := c.s.Arr.ActivePane(client)
	if p == nil {
		return
	}
	ps := c.s.panes[p.ID]
	if ps == nil {
		return
	}
	offset := c.s.copyOffsets[p.ID] + delta
	if offset < 0 {
		offset = 0
	}
	if max := ps.Screen.MaxScrollOffset(); offset > max {
		offset = max
	}
	c.s.copyOffsets[p.ID] = offset
}

// SearchCopyMode implements copy-mode's "/" search: forward-only,
// meaning toward older history, wrapping back to the live view (offset
// 0) once the top of scrollback is passed without a match. Matching is
// smart-case: case-sensitive only if pattern itself contains an
// uppercase rune, otherwise both sides are folded to lowercase. An
// empty pattern repeats the pane's last search (the 'n' binding),
// recorded in Session.lastSearch the previous time a non-empty pattern
// was submitted.
func (c *paneContext) SearchCopyMode(client arrangement.ClientID, pattern string, forward bool) {
	p := c.s.Arr.ActivePane(client)
	if p == nil {
		return
	}
	ps := c.s.panes[p.ID]
	if ps == nil {
		return
	}

	if pattern == "" {
		pattern = c.s.lastSearch[p.ID]
	}
	if pattern == "" {
		return
	}
	c.s.lastSearch[p.ID] = pattern

	needle := pattern
	foldCase := !hasUpper(pattern)
	if foldCase {
		needle = strings.ToLower(pattern)
	}

	lines := ps.Screen.HistoryText()
	n := len(lines)
	if n == 0 {
		return
	}

	start := c.s.copyOffsets[p.ID] + 1
	for i := 0; i < n; i++ {
		offset := start + i
		idx := n - offset
		if idx < 0 {
			// Wrapped past the top of scrollback; resume from the bottom.
			idx += n
			offset -= n
		}
		if idx < 0 || idx >= n {
			continue
		}
		line := lines[idx]
		if foldCase {
			line = strings.ToLower(line)
		}
		if strings.Contains(line, needle) {
			p.CopyMode = true
			if offset < 0 {
				offset = 0
			}
			c.s.copyOffsets[p.ID] = offset
			return
		}
	}
}

func hasUpper(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}
