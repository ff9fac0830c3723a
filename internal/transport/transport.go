// Package transport implements pymux's client/server wire protocol: a
// single Unix-domain listener per server, one net.Conn per attached
// client, and NUL-terminated JSON packet framing. Grounded on the
// teacher's session.Daemon/attach.go (the listener-plus-per-connection
// shape, and handleAttach's handshake-then-stream lifecycle), generalized
// from the teacher's single d.attachClient pointer to a ClientID-keyed
// map since pymux requires many simultaneous attached clients per
// server, where the teacher's v1 supported exactly one. Socket path
// allocation reuses internal/socketdir directly.
package transport

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"pymux/internal/arrangement"
	"pymux/internal/socketdir"
)

// Client -> server packet tags.
const (
	TagStartGUI   = "start-gui"
	TagSize       = "size"
	TagIn         = "in"
	TagRunCommand = "run-command"
)

// Server -> client packet tags.
const (
	TagOut     = "out"
	TagSuspend = "suspend"
	TagDetach  = "detach"
)

// Packet is the wire shape of every framed message: {"cmd":<tag>,
// "data":<payload>} followed by a single 0x00 byte.
type Packet struct {
	Cmd  string          `json:"cmd"`
	Data json.RawMessage `json:"data,omitempty"`
}

// StartGUIPayload is TagStartGUI's data field. OscFg/OscBg carry the
// attaching terminal's foreground/background color, detected
// client-side via termenv before raw mode is entered, in the same X11
// "rgb:RRRR/GGGG/BBBB" shape the teacher's ColorToX11/RespondOSCColors
// pair uses — so a pane spawned for this client can answer an OSC
// 10/11 query from a program expecting the real terminal's palette.
type StartGUIPayload struct {
	DetachOthers bool   `json:"detach_others,omitempty"`
	Rows         int    `json:"rows,omitempty"`
	Cols         int    `json:"cols,omitempty"`
	OscFg        string `json:"osc_fg,omitempty"`
	OscBg        string `json:"osc_bg,omitempty"`
}

// RunCommandPayload is TagRunCommand's data field.
type RunCommandPayload struct {
	Command string `json:"command"`
	PaneID  string `json:"pane_id,omitempty"`
}

// DecodeIn unmarshals a TagIn payload: raw input bytes, carried as a
// JSON string the same way SendOut carries pane output.
func DecodeIn(data json.RawMessage) ([]byte, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("transport: decode in payload: %w", err)
	}
	return []byte(s), nil
}

// DecodeOut unmarshals a TagOut payload: the client-side counterpart of
// SendOut, for the attach loop turning a received packet back into the
// raw bytes to write to the real terminal.
func DecodeOut(data json.RawMessage) ([]byte, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("transport: decode out payload: %w", err)
	}
	return []byte(s), nil
}

// DecodeStartGUI unmarshals a TagStartGUI payload.
func DecodeStartGUI(data json.RawMessage) (StartGUIPayload, error) {
	var p StartGUIPayload
	if len(data) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("transport: decode start-gui payload: %w", err)
	}
	return p, nil
}

// DecodeRunCommand unmarshals a TagRunCommand payload.
func DecodeRunCommand(data json.RawMessage) (RunCommandPayload, error) {
	var p RunCommandPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("transport: decode run-command payload: %w", err)
	}
	return p, nil
}

// DecodeSize unmarshals a TagSize payload, wire-shaped as the two-element
// array [rows, cols] rather than an object.
func DecodeSize(data json.RawMessage) (rows, cols int, err error) {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return 0, 0, fmt.Errorf("transport: decode size payload: %w", err)
	}
	return pair[0], pair[1], nil
}

// EncodeSize builds the [rows, cols] payload TagSize expects.
func EncodeSize(rows, cols int) [2]int {
	return [2]int{rows, cols}
}

// Server owns the listener and the set of currently attached client
// connections, keyed by the ClientID the engine assigns on start-gui.
type Server struct {
	Listener net.Listener
	SockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	clients map[arrangement.ClientID]*ClientConn
}

// Listen binds a specific socket path (used by tests; production callers
// use ListenAllocated so socketdir picks the path and guards the bind
// race with an advisory flock).
func Listen(path string) (*Server, error) {
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", path, err)
	}
	return &Server{Listener: ln, SockPath: path, clients: make(map[arrangement.ClientID]*ClientConn)}, nil
}

// ListenAllocated finds the lowest free <tmpdir>/pymux.sock.<user>.<N>
// path via socketdir.Allocate, binds it, and returns a Server holding
// both the listener and the allocation lock — the caller keeps the lock
// held for the server's lifetime and releases it (via Close) on shutdown.
func ListenAllocated() (*Server, error) {
	path, lock, err := socketdir.Allocate()
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("transport: listen %s: %w", path, err)
	}
	return &Server{Listener: ln, SockPath: path, lock: lock, clients: make(map[arrangement.ClientID]*ClientConn)}, nil
}

// Close stops accepting new connections, closes every attached client
// connection, and releases the socket allocation lock if one is held.
func (s *Server) Close() error {
	s.mu.Lock()
	clients := make([]*ClientConn, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clients = make(map[arrangement.ClientID]*ClientConn)
	s.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	err := s.Listener.Close()
	if s.lock != nil {
		s.lock.Unlock()
	}
	return err
}

// Dial connects to a server's socket from the client side (used by
// `pymux attach`/`run-command` and by tests exercising both ends of the
// wire protocol without a Server).
func Dial(path string) (*ClientConn, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", path, err)
	}
	return &ClientConn{conn: conn, reader: bufio.NewReader(conn)}, nil
}

// Accept blocks for the next incoming connection and wraps it in a
// handshake-only ClientConn (not yet registered under any ClientID —
// the caller registers it via Register once start-gui arrives, mirroring
// the teacher's "send OK, then switch to framed protocol" handshake).
func (s *Server) Accept() (*ClientConn, error) {
	conn, err := s.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &ClientConn{conn: conn, reader: bufio.NewReader(conn)}, nil
}

// Register attaches conn under id, replacing and closing any previous
// connection already registered there (a client reattaching with the
// same id, e.g. after a brief disconnect the engine chose to reuse).
func (s *Server) Register(id arrangement.ClientID, conn *ClientConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn.ID = id
	if old, ok := s.clients[id]; ok && old != conn {
		old.Close()
	}
	s.clients[id] = conn
}

// Unregister drops id from the attached set. Safe to call more than
// once (a client that disappears via EOF and is then Detach()ed
// explicitly by the engine).
func (s *Server) Unregister(id arrangement.ClientID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}

// Clients returns a snapshot of currently attached client IDs.
func (s *Server) Clients() []arrangement.ClientID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]arrangement.ClientID, 0, len(s.clients))
	for id := range s.clients {
		ids = append(ids, id)
	}
	return ids
}

// Get returns the ClientConn registered for id, if any.
func (s *Server) Get(id arrangement.ClientID) (*ClientConn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	return c, ok
}

// Broadcast sends a TagOut packet to every attached client, dropping
// (and unregistering) any connection whose write fails — a write error
// here means the same thing an EOF on read means: the client is gone.
func (s *Server) Broadcast(data []byte) {
	s.mu.Lock()
	targets := make([]*ClientConn, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	for _, c := range targets {
		if err := c.SendOut(data); err != nil {
			s.Unregister(c.ID)
		}
	}
}

// DetachAll sends TagDetach to every client except keep (used by
// start-gui's detach_others), then unregisters and closes them.
func (s *Server) DetachAll(keep arrangement.ClientID) {
	s.mu.Lock()
	targets := make([]*ClientConn, 0, len(s.clients))
	for id, c := range s.clients {
		if id != keep {
			targets = append(targets, c)
		}
	}
	s.mu.Unlock()

	for _, c := range targets {
		c.Send(TagDetach, nil)
		s.Unregister(c.ID)
		c.Close()
	}
}

// ClientConn is one attached connection: a framed reader/writer pair
// plus the ClientID it is registered under (empty until Register).
type ClientConn struct {
	ID     arrangement.ClientID
	conn   net.Conn
	reader *bufio.Reader

	writeMu sync.Mutex
}

// ReadPacket blocks for the next NUL-terminated JSON packet. It tolerates
// a packet arriving split across arbitrarily many underlying reads,
// since bufio.Reader.ReadBytes buffers across Read calls until it finds
// the 0x00 delimiter.
func (c *ClientConn) ReadPacket() (Packet, error) {
	raw, err := c.reader.ReadBytes(0)
	if err != nil {
		return Packet{}, err
	}
	raw = raw[:len(raw)-1] // drop the trailing NUL
	var p Packet
	if err := json.Unmarshal(raw, &p); err != nil {
		return Packet{}, fmt.Errorf("transport: decode packet: %w", err)
	}
	return p, nil
}

// Send frames cmd/data as one packet and writes it, NUL-terminated.
// data may be nil for tags with no payload (suspend, detach).
func (c *ClientConn) Send(cmd string, data any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	p := Packet{Cmd: cmd}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("transport: encode %s payload: %w", cmd, err)
		}
		p.Data = raw
	}
	buf, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("transport: encode packet: %w", err)
	}
	buf = append(buf, 0)
	_, err = c.conn.Write(buf)
	return err
}

// SendOut is the hot path the reactor calls once per pane-output/render
// batch: a TagOut packet carrying verbatim terminal bytes as a JSON
// string. Escaping arbitrary bytes (including embedded NULs) through
// JSON's \uXXXX/string quoting keeps the framing delimiter ('\x00')
// unambiguous regardless of what the pane itself writes.
func (c *ClientConn) SendOut(data []byte) error {
	return c.Send(TagOut, string(data))
}

// Close closes the underlying connection.
func (c *ClientConn) Close() error {
	return c.conn.Close()
}

// SetReadDeadline sets the deadline ReadPacket's next read respects,
// exposing the underlying net.Conn's own deadline support for callers
// that need to poll rather than block indefinitely (e.g. an attach
// loop's resize watcher racing a read, or a test with a bounded wait).
func (c *ClientConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// RemoteAddr exposes the underlying connection's address for logging.
func (c *ClientConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
