package engine

import (
	"time"

	"pymux/internal/arrangement"
	"pymux/internal/inputrouter"
	"pymux/internal/render"
	"pymux/internal/termscreen"
)

// renderAll composes and sends a fresh frame to every registered client.
// Called after any event that could change what's on screen: pane
// output, a dispatched command, a resize, a client attaching/detaching,
// or a tick (for the status clock).
func (s *Session) renderAll() {
	now := time.Now()
	for _, cs := range s.clients {
		if !cs.registered {
			continue
		}
		if cs.Message != "" && now.After(cs.messageExpiry) {
			cs.Message = ""
		}
		frame := s.renderClient(cs)
		cs.Conn.SendOut(frame.Data)
	}
}

func (s *Session) renderClient(cs *clientState) render.Frame {
	w := s.Arr.ActiveWindow(cs.ID)
	if w == nil {
		return render.Frame{}
	}

	status := s.buildStatus(cs.ID, w)
	overlay := s.buildOverlay(cs)
	clocks := s.buildClocks(w)
	winRows, winCols := s.windowContentSize(w)

	return s.Renderer.ComposeWithClocks(w, cs.ID, s.paneScreens, cs.Rows, cs.Cols, winRows, winCols, status, overlay, s.copyOffsets, clocks)
}

// paneScreens adapts the engine's pane registry to render.PaneScreens.
func (s *Session) paneScreens(id arrangement.PaneID) *termscreen.Screen {
	ps := s.panes[id]
	if ps == nil {
		return nil
	}
	return ps.Screen
}

func (s *Session) buildStatus(client arrangement.ClientID, active *arrangement.Window) render.Status {
	tabs := make([]render.WindowTab, 0, len(s.Arr.Windows))
	for i, w := range s.Arr.Windows {
		tabs = append(tabs, render.WindowTab{
			Index:  i + s.Arr.BaseIndex,
			Name:   w.Name(client),
			Active: w == active,
			Bell:   s.bells[w.ID],
		})
	}
	if active != nil {
		delete(s.bells, active.ID)
	}
	return render.Status{
		SessionName: s.Name,
		Windows:     tabs,
		Clock:       time.Now().Format("15:04:05"),
	}
}

func (s *Session) buildOverlay(cs *clientState) *render.Overlay {
	switch cs.Input.Mode {
	case inputrouter.ModeCommandPrompt, inputrouter.ModeTextPrompt, inputrouter.ModeCopySearch:
		return &render.Overlay{
			Prompt:       cs.Input.PromptLabel,
			Buffer:       cs.Input.Buffer,
			CursorOffset: cs.Input.Cursor,
		}
	case inputrouter.ModeConfirm:
		return &render.Overlay{Message: cs.Input.ConfirmMessage, CursorOffset: -1}
	}
	if cs.Message != "" {
		return &render.Overlay{Message: cs.Message, CursorOffset: -1}
	}
	return nil
}

// buildClocks returns the clock face for every pane in w that currently
// has ClockMode set, keyed by pane ID for render.ComposeWithClocks.
func (s *Session) buildClocks(w *arrangement.Window) map[arrangement.PaneID]string {
	var clocks map[arrangement.PaneID]string
	for _, p := range w.Panes() {
		if p.ClockMode {
			if clocks == nil {
				clocks = make(map[arrangement.PaneID]string)
			}
			clocks[p.ID] = time.Now().Format("15:04:05")
		}
	}
	return clocks
}
