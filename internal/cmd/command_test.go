package cmd

import "testing"

func TestPaneEnv(t *testing.T) {
	t.Setenv("PYMUX", "/tmp/pymux/pymux.sock.alice.0,3")

	sock, paneID, err := paneEnv()
	if err != nil {
		t.Fatalf("paneEnv: %v", err)
	}
	if sock != "/tmp/pymux/pymux.sock.alice.0" {
		t.Errorf("sock = %q, want %q", sock, "/tmp/pymux/pymux.sock.alice.0")
	}
	if paneID != "3" {
		t.Errorf("paneID = %q, want %q", paneID, "3")
	}
}

func TestPaneEnv_Unset(t *testing.T) {
	t.Setenv("PYMUX", "")

	if _, _, err := paneEnv(); err == nil {
		t.Fatal("expected error when $PYMUX is unset")
	}
}

func TestPaneEnv_Malformed(t *testing.T) {
	t.Setenv("PYMUX", "no-comma-here")

	if _, _, err := paneEnv(); err == nil {
		t.Fatal("expected error for malformed $PYMUX")
	}
}

func TestGenerateSessionName_Deterministic(t *testing.T) {
	a := generateSessionName()
	b := generateSessionName()
	if a != b {
		t.Errorf("generateSessionName() not stable within one process: %q vs %q", a, b)
	}
}
