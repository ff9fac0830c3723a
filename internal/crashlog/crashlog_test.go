package crashlog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecordAppendsJSONLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crash.log")
	l := New(path)
	defer l.Close()

	if err := l.Record(errors.New("boom"), []byte("stack trace here")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := l.Record(errors.New("boom again"), []byte("stack 2")); err != nil {
		t.Fatalf("Record: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read crash log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), raw)
	}

	var rec Record
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Error != "boom" {
		t.Errorf("Error = %q, want %q", rec.Error, "boom")
	}
	if rec.Stack != "stack trace here" {
		t.Errorf("Stack = %q, want %q", rec.Stack, "stack trace here")
	}
	if rec.Time.IsZero() {
		t.Error("Time should be set")
	}
}

func TestRecordCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "crash.log")
	l := New(path)
	defer l.Close()

	if err := l.Record(errors.New("x"), nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected crash file to exist: %v", err)
	}
}

func TestGuardRecoversAndRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crash.log")
	l := New(path)
	defer l.Close()

	panicked := l.Guard(func() {
		panic("something went wrong")
	})
	if !panicked {
		t.Fatal("expected Guard to report a panic")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read crash log: %v", err)
	}
	if !strings.Contains(string(raw), "something went wrong") {
		t.Errorf("crash log missing panic message: %q", raw)
	}
}

func TestGuardNoPanic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crash.log")
	l := New(path)
	defer l.Close()

	ran := false
	if panicked := l.Guard(func() { ran = true }); panicked {
		t.Error("expected no panic reported")
	}
	if !ran {
		t.Error("expected fn to run")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("crash file should not be created when nothing panics")
	}
}

func TestDefaultPath(t *testing.T) {
	if got := DefaultPath(); !strings.HasSuffix(got, "crash.log") {
		t.Errorf("DefaultPath() = %q, want suffix crash.log", got)
	}
}
