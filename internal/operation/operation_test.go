package operation

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/fsutil"
)

// countingFS records RemoveAll calls and can fail them.
type countingFS struct {
	fsutil.FS
	removeAllCalls int
	removeAllErr   error
}

func (c *countingFS) RemoveAll(path string) error {
	c.removeAllCalls++
	if c.removeAllErr != nil {
		return c.removeAllErr
	}
	return c.FS.RemoveAll(path)
}

func TestNew(t *testing.T) {
	parent := t.TempDir()

	op, err := New(fsutil.OS(), parent)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if op.ID == uuid.Nil {
		t.Error("expected non-nil ID")
	}
	if got, want := op.Dir, filepath.Join(parent, DirPrefix+op.ID.String()); got != want {
		t.Errorf("Dir = %q, want %q", got, want)
	}
	info, err := os.Stat(op.Dir)
	if err != nil {
		t.Fatalf("operation directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("operation path is not a directory")
	}
	if op.State() != StateIdle {
		t.Errorf("State() = %q, want idle", op.State())
	}
	if op.Started.IsZero() {
		t.Error("expected Started to be set")
	}
}

func TestNew_DefaultParent(t *testing.T) {
	op, err := New(nil, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer op.Cleanup()

	if filepath.Dir(op.Dir) != filepath.Clean(os.TempDir()) {
		t.Errorf("Dir = %q, want a child of %q", op.Dir, os.TempDir())
	}
	if !strings.HasPrefix(filepath.Base(op.Dir), DirPrefix) {
		t.Errorf("Dir base = %q, want prefix %q", filepath.Base(op.Dir), DirPrefix)
	}
}

func TestNew_UniqueDirectories(t *testing.T) {
	parent := t.TempDir()
	seen := make(map[string]bool)

	for i := 0; i < 10; i++ {
		op, err := New(fsutil.OS(), parent)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if seen[op.Dir] {
			t.Fatalf("duplicate operation directory %s", op.Dir)
		}
		seen[op.Dir] = true
	}
}

func TestNew_MissingParent(t *testing.T) {
	_, err := New(fsutil.OS(), filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error = %v, want fs.ErrNotExist", err)
	}
}

func TestAdvance(t *testing.T) {
	op, err := New(fsutil.OS(), t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stages := []State{StateReleaseResolved, StateStaged, StateFetching, StateUnpacking, StateRelocating, StateDecompressing}
	for _, s := range stages {
		op.Advance(s)
		if op.State() != s {
			t.Errorf("State() = %q after Advance(%q)", op.State(), s)
		}
	}

	history := op.History()
	want := append([]State{StateIdle}, stages...)
	if len(history) != len(want) {
		t.Fatalf("History() = %v, want %v", history, want)
	}
	for i := range want {
		if history[i] != want[i] {
			t.Errorf("History()[%d] = %q, want %q", i, history[i], want[i])
		}
	}

	history[0] = StateFailed
	if op.History()[0] != StateIdle {
		t.Error("History() returned internal slice")
	}
	if op.Failed() {
		t.Error("Failed() = true before Fail()")
	}
}

func TestCleanup(t *testing.T) {
	t.Run("removes_directory_once", func(t *testing.T) {
		fsys := &countingFS{FS: fsutil.OS()}
		op, err := New(fsys, t.TempDir())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if err := os.WriteFile(filepath.Join(op.Dir, "archive.mar"), []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}

		if err := op.Cleanup(); err != nil {
			t.Fatalf("Cleanup() error = %v", err)
		}
		if err := op.Cleanup(); err != nil {
			t.Fatalf("second Cleanup() error = %v", err)
		}

		if fsys.removeAllCalls != 1 {
			t.Errorf("RemoveAll calls = %d, want 1", fsys.removeAllCalls)
		}
		if _, err := os.Stat(op.Dir); !os.IsNotExist(err) {
			t.Errorf("operation directory still exists: %v", err)
		}
		if op.State() != StateCleaned {
			t.Errorf("State() = %q, want cleaned", op.State())
		}
	})

	t.Run("missing_directory", func(t *testing.T) {
		op, err := New(fsutil.OS(), t.TempDir())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if err := os.RemoveAll(op.Dir); err != nil {
			t.Fatalf("RemoveAll: %v", err)
		}

		if err := op.Cleanup(); err != nil {
			t.Errorf("Cleanup() error = %v, want nil", err)
		}
	})

	t.Run("failure_is_sticky", func(t *testing.T) {
		boom := errors.New("device busy")
		fsys := &countingFS{FS: fsutil.OS(), removeAllErr: boom}
		op, err := New(fsys, t.TempDir())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		op.Fail()

		first := op.Cleanup()
		if !errors.Is(first, boom) {
			t.Fatalf("Cleanup() error = %v, want %v", first, boom)
		}
		if second := op.Cleanup(); second != first {
			t.Errorf("second Cleanup() = %v, want first result %v", second, first)
		}
		if fsys.removeAllCalls != 1 {
			t.Errorf("RemoveAll calls = %d, want 1", fsys.removeAllCalls)
		}
		if op.State() != StateFailed {
			t.Errorf("State() = %q, want failed", op.State())
		}
		if !op.Failed() {
			t.Error("Failed() = false after Fail()")
		}
	})
}
