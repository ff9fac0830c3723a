package reactor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pymux/internal/arrangement"
	"pymux/internal/procsup"
	"pymux/internal/transport"
)

func TestWatchPane_PostsOutputThenChildExit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := New(ctx, 16)

	p, err := procsup.Spawn(procsup.SpawnOpts{
		Argv: []string{"/bin/sh", "-c", "echo hi; exit 0"},
		Rows: 24,
		Cols: 80,
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	r.WatchPane(arrangement.PaneID(1), p)

	var sawOutput, sawExit bool
	deadline := time.After(3 * time.Second)
	for !sawExit {
		select {
		case ev := <-r.Events():
			switch e := ev.(type) {
			case PaneOutput:
				if e.PaneID == arrangement.PaneID(1) {
					sawOutput = true
				}
			case ChildExit:
				if e.PaneID == arrangement.PaneID(1) {
					sawExit = true
				}
			}
		case <-deadline:
			t.Fatal("timed out waiting for pane events")
		}
	}
	if !sawOutput {
		t.Errorf("expected at least one PaneOutput event before ChildExit")
	}
}

func TestWatchTicker_PostsTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := New(ctx, 4)

	r.WatchTicker(20 * time.Millisecond)

	select {
	case ev := <-r.Events():
		if _, ok := ev.(Tick); !ok {
			t.Fatalf("expected a Tick event, got %T", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a tick")
	}
}

func TestWatchListenerAndClient_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := New(ctx, 16)

	sock := filepath.Join(t.TempDir(), "reactor.sock")
	srv, err := transport.Listen(sock)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer srv.Close()

	r.WatchListener(srv)

	done := make(chan struct{})
	go func() {
		conn, derr := transport.Dial(sock)
		if derr != nil {
			t.Errorf("dial: %v", derr)
			return
		}
		conn.Send(transport.TagIn, "hello")
		close(done)
	}()

	var conn *transport.ClientConn
	select {
	case ev := <-r.Events():
		nc, ok := ev.(NewConnection)
		if !ok {
			t.Fatalf("expected NewConnection, got %T", ev)
		}
		conn = nc.Conn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for NewConnection")
	}

	srv.Register(arrangement.ClientID("c1"), conn)
	r.WatchClient(arrangement.ClientID("c1"), conn)

	select {
	case ev := <-r.Events():
		cp, ok := ev.(ClientPacket)
		if !ok {
			t.Fatalf("expected ClientPacket, got %T", ev)
		}
		if cp.Packet.Cmd != transport.TagIn {
			t.Fatalf("expected cmd %q, got %q", transport.TagIn, cp.Packet.Cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ClientPacket")
	}
	<-done
}
