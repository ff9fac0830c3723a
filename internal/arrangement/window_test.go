package arrangement

import "testing"

func TestWindow_Name_FallsBackThroughChain(t *testing.T) {
	a := New(0)
	p := newTestPane(a, "")
	w := a.CreateWindow(clientA, p)

	if got := w.Name(clientA); got != "(noname)" {
		t.Fatalf("Name() = %q, want (noname)", got)
	}

	p.ProcessName = "bash"
	if got := w.Name(clientA); got != "bash" {
		t.Fatalf("Name() = %q, want bash", got)
	}

	p.Name = "editor"
	if got := w.Name(clientA); got != "editor" {
		t.Fatalf("Name() = %q, want editor", got)
	}

	w.ChosenName = "work"
	if got := w.Name(clientA); got != "work" {
		t.Fatalf("Name() = %q, want work", got)
	}
}

func TestWindow_PreviousActivePane_InvalidatesOnRemoval(t *testing.T) {
	a := New(0)
	p1 := newTestPane(a, "a")
	w := a.CreateWindow(clientA, p1)
	p2 := newTestPane(a, "b")
	w.AddPane(clientA, p2, Horizontal)

	if id, ok := w.PreviousActivePane(clientA); !ok || id != p1.ID {
		t.Fatalf("PreviousActivePane = %v, %v; want %v, true", id, ok, p1.ID)
	}

	w.RemovePane(p1.ID, []ClientID{clientA})

	if _, ok := w.PreviousActivePane(clientA); ok {
		t.Fatal("expected previous-active to read as gone once its pane is removed")
	}
}

func TestWindow_Zoom_ClearedOnStructuralChange(t *testing.T) {
	a := New(0)
	p1 := newTestPane(a, "a")
	w := a.CreateWindow(clientA, p1)
	w.Zoom = true

	p2 := newTestPane(a, "b")
	w.AddPane(clientA, p2, Horizontal)

	if w.Zoom {
		t.Fatal("expected zoom to clear on add-pane")
	}

	w.Zoom = true
	w.RemovePane(p2.ID, []ClientID{clientA})
	if w.Zoom {
		t.Fatal("expected zoom to clear on remove-pane")
	}
}
