// Package procsup is the process/PTY supervisor: it forks and execs a
// pane's child program under a controlling PTY, pipes its output,
// injects input, tracks size, and reaps exit. Grounded on
// virtualterminal.VT's StartPTY/PipeOutput/WritePTY/Resize (generalized
// from one child per session to one per pane) and github.com/creack/pty.
package procsup

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// SpawnOpts describes a new child process to start under a PTY.
type SpawnOpts struct {
	Argv   []string // argv[0] is looked up on PATH if unqualified
	Env    []string // base environment; Extra is layered on top
	Extra  map[string]string
	Dir    string
	Rows   int
	Cols   int
	PaneID int
	Socket string // socket path exposed to the child as PYMUX=<socket>,<pane_id>
	Term   string // value assigned to $TERM, e.g. "xterm-256color"
}

// Process owns the PTY master, the child's pid, and its lifecycle state.
// Exactly one Process exists per pane.
type Process struct {
	mu sync.Mutex

	Ptm *os.File
	cmd *exec.Cmd
	pid int

	rows, cols int

	terminated bool
	exitErr    error

	// OnExit is invoked exactly once, off the reactor's read goroutine,
	// when the child's output stream closes (see Read). The reactor
	// posts this as a ChildExit event rather than mutating engine state
	// directly from this goroutine.
	OnExit func(err error)
}

// Spawn opens a PTY, forks, and execs argv under it. In the child:
// the slave becomes the controlling TTY over stdin/stdout/stderr, cwd is
// set, TERM and PYMUX are exported, and argv[0] is resolved against
// PATH if not already a path. The parent closes the slave and records
// the master fd and pid; POSIX exec resets any signal disposition the
// parent caught (including SIGWINCH from the reactor's signal.Notify) back
// to default, so no explicit reset is needed here.
func Spawn(opts SpawnOpts) (*Process, error) {
	if len(opts.Argv) == 0 {
		return nil, fmt.Errorf("procsup: spawn: empty argv")
	}

	path, err := resolvePath(opts.Argv[0])
	if err != nil {
		return nil, fmt.Errorf("procsup: spawn %q: %w", opts.Argv[0], err)
	}

	cmd := exec.Command(path, opts.Argv[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = buildEnv(opts)

	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(opts.Rows),
		Cols: uint16(opts.Cols),
	})
	if err != nil {
		return nil, fmt.Errorf("procsup: spawn %q: %w", opts.Argv[0], err)
	}

	p := &Process{
		Ptm:  ptm,
		cmd:  cmd,
		pid:  cmd.Process.Pid,
		rows: opts.Rows,
		cols: opts.Cols,
	}
	return p, nil
}

func resolvePath(name string) (string, error) {
	if strings.Contains(name, "/") {
		return name, nil
	}
	return exec.LookPath(name)
}

func buildEnv(opts SpawnOpts) []string {
	base := opts.Env
	if base == nil {
		base = os.Environ()
	}
	extra := map[string]string{}
	for k, v := range opts.Extra {
		extra[k] = v
	}
	if opts.Term != "" {
		extra["TERM"] = opts.Term
	}
	if opts.Socket != "" {
		extra["PYMUX"] = fmt.Sprintf("%s,%d", opts.Socket, opts.PaneID)
	}

	env := make([]string, 0, len(base)+len(extra))
	for _, e := range base {
		if idx := strings.IndexByte(e, '='); idx >= 0 {
			if _, overridden := extra[e[:idx]]; overridden {
				continue
			}
		}
		env = append(env, e)
	}
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}

// Pid returns the child's process id.
func (p *Process) Pid() int {
	return p.pid
}

// Read performs one blocking read of the child's PTY master, intended to
// be called in a loop from a dedicated goroutine per pane (spec §4.B);
// the reactor goroutine that owns this loop turns each successful read
// into a PaneOutput event on the single reactor mailbox rather than
// touching engine state itself. A zero-length read or any error other
// than a transient one means the child closed its end; the caller should
// stop looping and the Process is marked terminated.
func (p *Process) Read(buf []byte) (int, error) {
	return p.Ptm.Read(buf)
}

// Write blocks until p is written to the child's PTY, retrying on
// EINTR — terminal resizes deliver SIGWINCH, which can interrupt a
// write in progress.
func (p *Process) Write(data []byte) (int, error) {
	total := 0
	for total < len(data) {
		n, err := p.Ptm.Write(data[total:])
		total += n
		if err == nil {
			continue
		}
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		return total, err
	}
	return total, nil
}

// Resize updates the PTY window size and the Process's recorded
// dimensions. Callers are responsible for resizing the paired
// termscreen.Screen to the same rows/cols so the two never disagree.
func (p *Process) Resize(rows, cols int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows, p.cols = rows, cols
	return pty.Setsize(p.Ptm, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// Size returns the last rows/cols passed to Resize or Spawn.
func (p *Process) Size() (rows, cols int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rows, p.cols
}

// SendSignal delivers signum to the child. A no-op once the process has
// been marked terminated.
func (p *Process) SendSignal(signum syscall.Signal) error {
	p.mu.Lock()
	terminated := p.terminated
	p.mu.Unlock()
	if terminated {
		return nil
	}
	return syscall.Kill(p.pid, signum)
}

// Wait blocks until the child exits and reaps it, the same way the
// teacher's lifecycleLoop blocks on a single s.VT.Cmd.Wait() per child:
// Go's os/exec already reaps SIGCHLD internally, so the reactor's
// per-pane pump calls this directly after its PTY read loop hits EOF
// rather than maintaining its own SIGCHLD self-pipe.
func (p *Process) Wait() error {
	return p.cmd.Wait()
}

// MarkExited records that the child has exited, remembering the error
// (if any) Wait() returned, and invokes OnExit once. Called from the
// reactor's per-pane pump after its PTY read loop ends and it has
// reaped the child via Wait; it is idempotent, matching the spec's
// allowance that the done-callback path and a later sweep may both
// observe termination.
func (p *Process) MarkExited(err error) {
	p.mu.Lock()
	if p.terminated {
		p.mu.Unlock()
		return
	}
	p.terminated = true
	p.exitErr = err
	p.mu.Unlock()
	if p.OnExit != nil {
		p.OnExit(err)
	}
}

// Terminated reports whether the child has exited.
func (p *Process) Terminated() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated, p.exitErr
}

// Close releases the PTY master. Safe to call once after MarkExited.
func (p *Process) Close() error {
	return p.Ptm.Close()
}

// CWD returns the child's current working directory, best-effort. Only
// implemented on Linux, via /proc/<pid>/cwd; other platforms return
// ("", false).
func (p *Process) CWD() (string, bool) {
	target, err := os.Readlink(fmt.Sprintf("/proc/%d/cwd", p.pid))
	if err != nil {
		return "", false
	}
	return target, true
}

// Name returns the basename of the foreground process group's command
// line, best-effort, used for window naming. Only implemented on Linux:
// it reads the master's foreground pgrp via TIOCGPGRP and then that
// pgrp's /proc/<pgrp>/cmdline.
func (p *Process) Name() (string, bool) {
	pgrp, err := unix.IoctlGetInt(int(p.Ptm.Fd()), unix.TIOCGPGRP)
	if err != nil {
		return "", false
	}
	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pgrp))
	if err != nil || len(raw) == 0 {
		return "", false
	}
	arg0 := raw
	if i := indexByte(raw, 0); i >= 0 {
		arg0 = raw[:i]
	}
	return filepath.Base(string(arg0)), true
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// WaitTimeout is the grace period SendSignal(SIGTERM) callers should
// allow before escalating to SIGKILL. Not enforced here — it is a
// policy decision left to the engine, which owns the reactor's timers.
const WaitTimeout = 3 * time.Second
