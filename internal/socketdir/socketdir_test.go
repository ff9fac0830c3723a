package socketdir

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		user string
		n    int
		want string
	}{
		{"dcosson", 0, "pymux.sock.dcosson.0"},
		{"alice", 3, "pymux.sock.alice.3"},
	}
	for _, tt := range tests {
		got := Format(tt.user, tt.n)
		if got != tt.want {
			t.Errorf("Format(%q, %d) = %q, want %q", tt.user, tt.n, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		filename string
		wantUser string
		wantN    int
		wantOK   bool
	}{
		{"pymux.sock.dcosson.0", "dcosson", 0, true},
		{"pymux.sock.alice.12", "alice", 12, true},
		{"notasocket.txt", "", 0, false},
		{"pymux.sock.noseq", "", 0, false},
		{"pymux.sock.dcosson.abc", "", 0, false},
	}
	for _, tt := range tests {
		entry, ok := Parse(tt.filename)
		if ok != tt.wantOK {
			t.Errorf("Parse(%q) ok = %v, want %v", tt.filename, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if entry.User != tt.wantUser || entry.N != tt.wantN {
			t.Errorf("Parse(%q) = %+v, want user=%q n=%d", tt.filename, entry, tt.wantUser, tt.wantN)
		}
	}
}

func TestPath(t *testing.T) {
	got := Path("dcosson", 2)
	want := filepath.Join(Dir(), "pymux.sock.dcosson.2")
	if got != want {
		t.Errorf("Path(dcosson, 2) = %q, want %q", got, want)
	}
}

func TestAllocate_FirstSlotFree(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)

	path, lock, err := Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer lock.Unlock()

	if filepath.Base(filepath.Dir(path)) != "pymux" {
		t.Errorf("Allocate() path = %q, want under a pymux/ dir", path)
	}
}

func TestAllocate_SkipsHeldSlot(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)

	first, firstLock, err := Allocate()
	if err != nil {
		t.Fatalf("first Allocate: %v", err)
	}
	defer firstLock.Unlock()

	second, secondLock, err := Allocate()
	if err != nil {
		t.Fatalf("second Allocate: %v", err)
	}
	defer secondLock.Unlock()

	if first == second {
		t.Fatalf("Allocate() returned the same path twice: %q", first)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()

	os.WriteFile(filepath.Join(dir, "pymux.sock.dcosson.0"), nil, 0o600)
	os.WriteFile(filepath.Join(dir, "pymux.sock.dcosson.1"), nil, 0o600)
	os.WriteFile(filepath.Join(dir, "pymux.sock.alice.0"), nil, 0o600)
	os.WriteFile(filepath.Join(dir, "pymux.sock.dcosson.0.lock"), nil, 0o600)

	socks, err := FindIn(dir, "dcosson")
	if err != nil {
		t.Fatal(err)
	}
	if len(socks) != 2 {
		t.Fatalf("expected 2 sockets for dcosson, got %d: %v", len(socks), socks)
	}
}

func TestListIn(t *testing.T) {
	dir := t.TempDir()

	os.WriteFile(filepath.Join(dir, "pymux.sock.dcosson.0"), nil, 0o600)
	os.WriteFile(filepath.Join(dir, "pymux.sock.alice.0"), nil, 0o600)
	os.WriteFile(filepath.Join(dir, "random.txt"), nil, 0o600)

	entries, err := ListIn(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}
	for _, e := range entries {
		if e.Path == "" {
			t.Error("entry has empty Path")
		}
	}
}

func TestListIn_EmptyDir(t *testing.T) {
	entries, err := ListIn(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(entries))
	}
}

func TestListIn_NonexistentDir(t *testing.T) {
	entries, err := ListIn("/nonexistent/path")
	if err != nil {
		t.Fatal(err)
	}
	if entries != nil {
		t.Errorf("expected nil, got %v", entries)
	}
}

func TestRegisterAndLookupName(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)

	sockPath, lock, err := Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer lock.Unlock()
	// ProbeSocket treats a held lock file as "bound", so RegisterName's
	// caller (the server, which holds this same lock for its lifetime)
	// makes LookupName see it as live without an actual listener.
	if err := os.WriteFile(sockPath, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := RegisterName("work", sockPath, 4242); err != nil {
		t.Fatalf("RegisterName: %v", err)
	}

	got, ok := LookupName("work")
	if !ok {
		t.Fatalf("LookupName(work) ok = false, want true")
	}
	if got != sockPath {
		t.Errorf("LookupName(work) = %q, want %q", got, sockPath)
	}

	entry, ok := LookupEntry("work")
	if !ok || entry.Pid != 4242 {
		t.Errorf("LookupEntry(work) = %+v, ok=%v, want Pid=4242", entry, ok)
	}

	if _, ok := LookupName("missing"); ok {
		t.Errorf("LookupName(missing) ok = true, want false")
	}
}

func TestUnregisterName(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)

	sockPath, lock, err := Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer lock.Unlock()

	if err := RegisterName("temp", sockPath, os.Getpid()); err != nil {
		t.Fatalf("RegisterName: %v", err)
	}
	if err := UnregisterName("temp"); err != nil {
		t.Fatalf("UnregisterName: %v", err)
	}
	if _, ok := LookupName("temp"); ok {
		t.Errorf("LookupName(temp) ok = true after UnregisterName, want false")
	}
}

func TestDir_EndsInPymux(t *testing.T) {
	if filepath.Base(Dir()) != "pymux" {
		t.Errorf("Dir() = %q, want to end in pymux", Dir())
	}
}
