package downloader

import (
	"fmt"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/fsutil"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/logging"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/platform"
)

// UnsupportedPlatformError reports a release platform whose bundle layout
// is unknown.
type UnsupportedPlatformError struct {
	Platform string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform: %s", e.Platform)
}

// Is reports whether target is platform.ErrUnsupported.
func (e *UnsupportedPlatformError) Is(target error) bool {
	return target == platform.ErrUnsupported
}

// dataFiles are moved from the bundle's tor data directory next to the
// binary.
var dataFiles = []string{"torrc-defaults", "geoip", "geoip6"}

// relocate moves the tor directory of the unpacked bundle to target and the
// data files into it. The target ends up holding:
//
//	tor (or tor.exe), its libraries, torrc-defaults, geoip, geoip6
func relocate(fsys fsutil.FS, logger logging.Logger, unpackDir, target string, p platform.ReleasePlatform) error {
	var dataDir string

	switch p {
	case platform.OSX:
		if err := move(fsys, logger, filepath.Join(unpackDir, "Contents", "MacOS", "Tor"), target); err != nil {
			return err
		}
		if err := move(fsys, logger, filepath.Join(target, "tor.real"), filepath.Join(target, torBinaryName)); err != nil {
			return err
		}
		dataDir = filepath.Join(unpackDir, "Contents", "Resources", "TorBrowser", "Tor")
	case platform.Linux, platform.Win:
		if err := move(fsys, logger, filepath.Join(unpackDir, "TorBrowser", "Tor"), target); err != nil {
			return err
		}
		dataDir = filepath.Join(unpackDir, "TorBrowser", "Data", "Tor")
	default:
		return &UnsupportedPlatformError{Platform: string(p)}
	}

	for _, name := range dataFiles {
		if err := move(fsys, logger, filepath.Join(dataDir, name), filepath.Join(target, name)); err != nil {
			return err
		}
	}
	return nil
}

func move(fsys fsutil.FS, logger logging.Logger, from, to string) error {
	logger.Debug("rename", "from", from, "to", to)
	return fsys.Rename(from, to)
}
