package render

import (
	"strings"
	"testing"

	"pymux/internal/arrangement"
	"pymux/internal/termscreen"
)

func TestCompose_SinglePaneNoBorders(t *testing.T) {
	arr := arrangement.New(1)
	pane := arr.NewPane()
	win := arr.CreateWindow("c1", pane)

	sc := termscreen.New(4, 20, 100)
	sc.Write([]byte("hello"))

	r := New()
	frame := r.Compose(win, "c1", func(id arrangement.PaneID) *termscreen.Screen {
		if id == pane.ID {
			return sc
		}
		return nil
	}, 5, 20, 4, 20, Status{SessionName: "main"}, nil, nil)

	out := string(frame.Data)
	if !strings.Contains(out, "hello") {
		t.Errorf("expected pane content in frame, got %q", out)
	}
	if !strings.Contains(out, "main") {
		t.Errorf("expected status bar session name, got %q", out)
	}
	if strings.Contains(out, "│") {
		t.Errorf("single pane should not draw a vertical separator")
	}
}

func TestCompose_TwoPaneVerticalSplit(t *testing.T) {
	arr := arrangement.New(1)
	p1 := arr.NewPane()
	win := arr.CreateWindow("c1", p1)
	p2 := arr.NewPane()
	win.AddPane("c1", p2, arrangement.Vertical)

	screens := map[arrangement.PaneID]*termscreen.Screen{}
	for _, p := range win.Panes() {
		screens[p.ID] = termscreen.New(9, 9, 100)
	}

	r := New()
	frame := r.Compose(win, "c1", func(id arrangement.PaneID) *termscreen.Screen {
		return screens[id]
	}, 10, 20, 9, 20, Status{SessionName: "main"}, nil, nil)

	out := string(frame.Data)
	if !strings.Contains(out, "│") {
		t.Errorf("expected a vertical separator between two side-by-side panes")
	}
}

func TestCompose_SurplusViewportGetsBackgroundFill(t *testing.T) {
	arr := arrangement.New(1)
	pane := arr.NewPane()
	win := arr.CreateWindow("c1", pane)
	sc := termscreen.New(4, 20, 100)

	r := New()
	// This client's own frame (10x30) is larger than the window's shared
	// content area (4x20, set by a smaller client also viewing win), so
	// the right margin and bottom band should carry the dot fill rather
	// than stretched pane content.
	frame := r.Compose(win, "c1", func(arrangement.PaneID) *termscreen.Screen {
		return sc
	}, 10, 30, 4, 20, Status{SessionName: "main"}, nil, nil)

	out := string(frame.Data)
	if !strings.Contains(out, "·") {
		t.Errorf("expected surplus viewport to carry the background dot fill, got %q", out)
	}
}

func TestCompose_CursorFollowsActivePane(t *testing.T) {
	arr := arrangement.New(1)
	pane := arr.NewPane()
	win := arr.CreateWindow("c1", pane)
	sc := termscreen.New(4, 20, 100)
	sc.Write([]byte("x"))

	r := New()
	frame := r.Compose(win, "c1", func(id arrangement.PaneID) *termscreen.Screen {
		return sc
	}, 5, 20, 4, 20, Status{}, nil, nil)

	if frame.CursorRow < 1 || frame.CursorCol < 2 {
		t.Errorf("expected cursor to have advanced past the written rune, got row=%d col=%d", frame.CursorRow, frame.CursorCol)
	}
}

func TestCompose_OverlayReplacesStatusBar(t *testing.T) {
	arr := arrangement.New(1)
	pane := arr.NewPane()
	win := arr.CreateWindow("c1", pane)

	r := New()
	overlay := &Overlay{Prompt: ":", Buffer: "split-window", CursorOffset: 5}
	frame := r.Compose(win, "c1", func(arrangement.PaneID) *termscreen.Screen { return nil }, 5, 20, 4, 20, Status{SessionName: "main"}, overlay, nil)

	out := string(frame.Data)
	if !strings.Contains(out, ":split-window") {
		t.Errorf("expected command prompt in status line, got %q", out)
	}
	if strings.Contains(out, "main") {
		t.Errorf("overlay should replace the status bar, not append to it")
	}
	if frame.CursorRow != 5 {
		t.Errorf("expected cursor pinned to the prompt row, got %d", frame.CursorRow)
	}
}

func TestVisibleWidth_SkipsSGR(t *testing.T) {
	if w := visibleWidth("\x1b[1;31mhi\x1b[0m"); w != 2 {
		t.Errorf("expected width 2, got %d", w)
	}
}

func TestDistribute_SumsExactly(t *testing.T) {
	sizes := distribute(10, []int{1, 1, 1})
	total := 0
	for _, s := range sizes {
		total += s
	}
	if total != 10 {
		t.Errorf("expected sizes to sum to 10, got %d (%v)", total, sizes)
	}
}
