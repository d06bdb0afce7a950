package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/fsutil"
)

const (
	marBinaryPath   = "mar-tools/signmar"
	UnpackedDirName = "tor-browser"
)

// UnpackExitError reports a signmar run that exited with a non-zero code.
type UnpackExitError struct {
	Code int
}

func (e *UnpackExitError) Error() string {
	return fmt.Sprintf("mar unpack exited with code %d", e.Code)
}

// Runner runs an external program in dir and reports its exit code. A
// non-nil error means the program could not be run at all.
type Runner interface {
	Run(ctx context.Context, name string, args []string, dir string) (int, error)
}

// ExecRunner runs programs with os/exec. Output is discarded unless Stdout
// or Stderr are set.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string, dir string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// marPath returns the signmar location inside opDir. The tool runs on the
// host, so the .exe suffix follows the native platform.
func (d *Downloader) marPath(opDir string) string {
	p := filepath.Join(opDir, filepath.FromSlash(marBinaryPath))
	if d.native.IsWindows() {
		p += ".exe"
	}
	return p
}

// unpack extracts the browser archive into <opDir>/tor-browser and returns
// that directory.
func (d *Downloader) unpack(ctx context.Context, opDir, archivePath string) (string, error) {
	mar := d.marPath(opDir)
	if err := fsutil.AddExecutable(d.fsys, mar); err != nil {
		return "", err
	}

	unpackDir := filepath.Join(opDir, UnpackedDirName)
	if err := fsutil.IgnoreExist(d.fsys.Mkdir(unpackDir, 0o755)); err != nil {
		return "", err
	}

	args := []string{"-C", unpackDir, "-x", archivePath}
	d.logger.Debug("unpacking", "tool", mar, "args", args)
	code, err := d.runner.Run(ctx, mar, args, opDir)
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", &UnpackExitError{Code: code}
	}
	return unpackDir, nil
}
