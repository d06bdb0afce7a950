// Package testutil provides helpers for testing torfetch in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv points the process environment at a fresh temporary
// directory and returns it. Operation directories land in <dir>/tmp and
// TORFETCH_REPOSITORY is cleared so the developer's settings never leak in.
//
// t.Setenv marks the test as unable to run in parallel.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	tmp := filepath.Join(dir, "tmp")
	if err := os.MkdirAll(tmp, 0o750); err != nil {
		t.Fatalf("failed to create test directory %s: %v", tmp, err)
	}

	t.Setenv("TMPDIR", tmp)
	t.Setenv("TMP", tmp)
	t.Setenv("TEMP", tmp)
	t.Setenv("TORFETCH_REPOSITORY", "")
	return dir
}
