package transport

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"pymux/internal/arrangement"
)

func dial(t *testing.T, s *Server) *ClientConn {
	t.Helper()
	conn, err := Dial(s.SockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestServer_ListenAndAccept(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "test.sock")
	s, err := Listen(sock)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer s.Close()

	acceptErr := make(chan error, 1)
	var serverSide *ClientConn
	go func() {
		c, err := s.Accept()
		serverSide = c
		acceptErr <- err
	}()

	client := dial(t, s)
	defer client.Close()

	select {
	case err := <-acceptErr:
		if err != nil {
			t.Fatalf("Accept: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Accept timed out")
	}

	s.Register(arrangement.ClientID("c1"), serverSide)
	ids := s.Clients()
	if len(ids) != 1 || ids[0] != "c1" {
		t.Fatalf("expected one registered client c1, got %v", ids)
	}
}

func TestPacketRoundTrip_StartGUI(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "test.sock")
	s, err := Listen(sock)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer s.Close()

	serverConnCh := make(chan *ClientConn, 1)
	go func() {
		c, _ := s.Accept()
		serverConnCh <- c
	}()

	client := dial(t, s)
	defer client.Close()
	serverSide := <-serverConnCh

	payload := StartGUIPayload{DetachOthers: true}
	raw, _ := json.Marshal(payload)
	if err := client.Send(TagStartGUI, payload); err != nil {
		t.Fatalf("Send: %v", err)
	}

	pkt, err := serverSide.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if pkt.Cmd != TagStartGUI {
		t.Fatalf("expected cmd %q, got %q", TagStartGUI, pkt.Cmd)
	}
	if string(pkt.Data) != string(raw) {
		t.Fatalf("expected data %s, got %s", raw, pkt.Data)
	}
}

func TestPacketRoundTrip_SplitAcrossWrites(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "test.sock")
	s, err := Listen(sock)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer s.Close()

	serverConnCh := make(chan *ClientConn, 1)
	go func() {
		c, _ := s.Accept()
		serverConnCh <- c
	}()

	client := dial(t, s)
	defer client.Close()
	serverSide := <-serverConnCh

	full := []byte(`{"cmd":"in","data":"ls\n"}`)
	full = append(full, 0)
	// Write byte-by-byte to exercise buffering across many small reads.
	for _, b := range full {
		if _, err := client.conn.Write([]byte{b}); err != nil {
			t.Fatalf("write byte: %v", err)
		}
	}

	pkt, err := serverSide.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if pkt.Cmd != TagIn {
		t.Fatalf("expected cmd %q, got %q", TagIn, pkt.Cmd)
	}
	var s2 string
	if err := json.Unmarshal(pkt.Data, &s2); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if s2 != "ls\n" {
		t.Fatalf("expected data %q, got %q", "ls\n", s2)
	}
}

func TestDecodeEncodeSize(t *testing.T) {
	raw, _ := json.Marshal(EncodeSize(40, 120))
	rows, cols, err := DecodeSize(raw)
	if err != nil {
		t.Fatalf("DecodeSize: %v", err)
	}
	if rows != 40 || cols != 120 {
		t.Fatalf("expected 40x120, got %dx%d", rows, cols)
	}
}

func TestBroadcast_DropsFailedClients(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "test.sock")
	s, err := Listen(sock)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer s.Close()

	serverConnCh := make(chan *ClientConn, 1)
	go func() {
		c, _ := s.Accept()
		serverConnCh <- c
	}()
	client := dial(t, s)
	serverSide := <-serverConnCh
	s.Register(arrangement.ClientID("c1"), serverSide)

	client.Close() // simulate the client going away before the broadcast

	s.Broadcast([]byte("hello"))

	time.Sleep(50 * time.Millisecond)
	if _, ok := s.Get(arrangement.ClientID("c1")); ok {
		t.Errorf("expected client unregistered after failed broadcast write")
	}
}
