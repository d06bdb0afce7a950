package downloader

import (
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/fsutil"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/platform"
)

const torBinaryName = "tor"

// TorBinaryFilename returns the name of the tor executable for pa.
func TorBinaryFilename(pa platform.PlatformArch) string {
	if pa.IsWindows() {
		return torBinaryName + ".exe"
	}
	return torBinaryName
}

// AddExecutionRights marks the tor binary in dir as executable.
func AddExecutionRights(dir string, pa platform.PlatformArch) error {
	return fsutil.AddExecutable(fsutil.OS(), filepath.Join(dir, TorBinaryFilename(pa)))
}
