// Package socketdir locates and allocates the Unix-domain sockets a pymux
// daemon listens on and a pymux client attaches to. Sockets live under
// a per-user temp directory and are named pymux.sock.<user>.<N>, where N
// increments whenever a lower-numbered socket is already bound.
package socketdir

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

const maxSocketAttempts = 100

// Entry represents a parsed socket file in the socket directory.
type Entry struct {
	User string // "dcosson"
	N    int    // 0, 1, 2, ...
	Path string // full path to the socket file
}

// Format returns the socket filename for a given user and sequence number:
// "pymux.sock.dcosson.0".
func Format(user string, n int) string {
	return "pymux.sock." + user + "." + strconv.Itoa(n)
}

// Parse extracts the user and sequence number from a socket filename like
// "pymux.sock.dcosson.0". Returns false if the filename doesn't match.
func Parse(filename string) (Entry, bool) {
	const prefix = "pymux.sock."
	if !strings.HasPrefix(filename, prefix) {
		return Entry{}, false
	}
	rest := filename[len(prefix):]
	dot := strings.LastIndexByte(rest, '.')
	if dot < 1 {
		return Entry{}, false
	}
	n, err := strconv.Atoi(rest[dot+1:])
	if err != nil {
		return Entry{}, false
	}
	return Entry{User: rest[:dot], N: n}, true
}

// Dir returns the socket directory: $TMPDIR/pymux/ (falling back to /tmp).
func Dir() string {
	base := os.Getenv("TMPDIR")
	if base == "" {
		base = "/tmp"
	}
	return filepath.Join(base, "pymux")
}

// CurrentUser returns the invoking user's login name, used to namespace
// sockets within the shared directory.
func CurrentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}

// Path returns the full socket path for a given user and sequence number.
func Path(user string, n int) string {
	return filepath.Join(Dir(), Format(user, n))
}

// ProbeSocket reports whether a Unix socket at path appears bound and
// live, by attempting to acquire its companion advisory lock file. A held
// lock means some process is already listening there.
func ProbeSocket(path string) (bound bool, err error) {
	lk := flock.New(path + ".lock")
	locked, err := lk.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe socket %s: %w", path, err)
	}
	if !locked {
		return true, nil
	}
	defer lk.Unlock()
	return false, nil
}

// Allocate finds the lowest-numbered socket path under Dir() for the
// current user that is not already bound, creating Dir() if needed, and
// returns the path together with the *flock.Flock held against it. The
// caller owns the returned lock and must keep it held for the socket's
// lifetime, unlocking it on shutdown.
func Allocate() (path string, lock *flock.Flock, err error) {
	dir := Dir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", nil, fmt.Errorf("allocate socket: %w", err)
	}
	user := CurrentUser()
	for n := 0; n < maxSocketAttempts; n++ {
		candidate := Path(user, n)
		lk := flock.New(candidate + ".lock")
		locked, err := lk.TryLock()
		if err != nil {
			return "", nil, fmt.Errorf("allocate socket: %w", err)
		}
		if !locked {
			continue
		}
		if _, err := os.Stat(candidate); err == nil {
			// Stale socket file left behind by a crashed daemon that held
			// no lock; safe to remove since we now hold the lock file.
			os.Remove(candidate)
		}
		return candidate, lk, nil
	}
	return "", nil, fmt.Errorf("allocate socket: no free slot for user %q after %d attempts", user, maxSocketAttempts)
}

// Find globs for pymux.sock.{user}.* in the default socket directory and
// returns the full paths of every matching socket file (lock files
// excluded), in the glob's lexical order. Whether a socket is bound is
// not checked.
func Find(user string) ([]string, error) {
	return FindIn(Dir(), user)
}

// FindIn globs for pymux.sock.{user}.* in the given directory.
func FindIn(dir, user string) ([]string, error) {
	pattern := filepath.Join(dir, "pymux.sock."+user+".*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	var socks []string
	for _, m := range matches {
		if strings.HasSuffix(m, ".lock") {
			continue
		}
		socks = append(socks, m)
	}
	return socks, nil
}

// NameEntry is one registered session: where its socket lives and which
// process is serving it.
type NameEntry struct {
	Path string `json:"path"`
	Pid  int    `json:"pid"`
}

// namesPath is the small JSON registry mapping a session's chosen name to
// the socket path currently serving it, so `attach <name>`/`list-sessions`
// don't have to guess which numbered slot a name landed on.
func namesPath(dir string) string {
	return filepath.Join(dir, "names.json")
}

func readNames(dir string) (map[string]NameEntry, error) {
	data, err := os.ReadFile(namesPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]NameEntry{}, nil
		}
		return nil, err
	}
	names := map[string]NameEntry{}
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("socketdir: decode names registry: %w", err)
	}
	return names, nil
}

func writeNames(dir string, names map[string]NameEntry) error {
	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(namesPath(dir), data, 0o600)
}

// RegisterName records that name is currently served at sockPath by pid,
// for a client to look up later by name instead of by numbered slot, and
// for kill-session to signal the right process.
func RegisterName(name, sockPath string, pid int) error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("socketdir: register name: %w", err)
	}
	names, err := readNames(dir)
	if err != nil {
		return fmt.Errorf("socketdir: register name: %w", err)
	}
	names[name] = NameEntry{Path: sockPath, Pid: pid}
	return writeNames(dir, names)
}

// UnregisterName removes name from the registry, best-effort. Safe to
// call even if name was never registered.
func UnregisterName(name string) error {
	dir := Dir()
	names, err := readNames(dir)
	if err != nil {
		return err
	}
	if _, ok := names[name]; !ok {
		return nil
	}
	delete(names, name)
	return writeNames(dir, names)
}

// LookupName resolves a session name to its socket path. The second
// return is false if the name isn't registered, or is registered but its
// socket is no longer bound (a daemon that died without unregistering).
func LookupName(name string) (string, bool) {
	entry, ok := LookupEntry(name)
	if !ok {
		return "", false
	}
	return entry.Path, true
}

// LookupEntry resolves a session name to its full registry entry
// (socket path and owning pid), live-checked the same way LookupName is.
func LookupEntry(name string) (NameEntry, bool) {
	names, err := readNames(Dir())
	if err != nil {
		return NameEntry{}, false
	}
	entry, ok := names[name]
	if !ok {
		return NameEntry{}, false
	}
	bound, err := ProbeSocket(entry.Path)
	if err != nil || !bound {
		return NameEntry{}, false
	}
	return entry, true
}

// Names returns every registered name currently backed by a live,
// bound socket, stale entries omitted.
func Names() (map[string]NameEntry, error) {
	names, err := readNames(Dir())
	if err != nil {
		return nil, err
	}
	live := make(map[string]NameEntry, len(names))
	for name, entry := range names {
		if bound, err := ProbeSocket(entry.Path); err == nil && bound {
			live[name] = entry
		}
	}
	return live, nil
}

// List returns all parsed socket entries from the default directory.
func List() ([]Entry, error) {
	return ListIn(Dir())
}

// ListIn returns all parsed socket entries from the given directory.
func ListIn(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var entries []Entry
	for _, de := range dirEntries {
		entry, ok := Parse(de.Name())
		if !ok {
			continue
		}
		entry.Path = filepath.Join(dir, de.Name())
		entries = append(entries, entry)
	}
	return entries, nil
}
