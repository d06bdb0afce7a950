// Package platform identifies the host operating system and architecture and
// maps them onto the platform names used by Tor Browser release archives.
//
// Two views of the host exist side by side. Info is what the machine reports
// (GOOS, GOARCH and, on Linux, the distribution detected through gopsutil).
// PlatformArch is the normalized release identifier ("linux64", "osx64",
// "win32"...) that archive filenames are built from. Only a fixed allow-list
// of host pairs converts to a PlatformArch.
package platform

import "context"

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains host detection information.
type Info struct {
	OS       string // GOOS: "linux", "darwin", "windows"
	Arch     string // GOARCH: "amd64", "386", "arm64"
	Platform string // distro ID (Linux only, e.g., "ubuntu", "arch")
	Family   string // canonical family (e.g., "debian", "rhel", "arch")
	Version  string // distro version (Linux only, e.g., "22.04")
}

// Distro contains Linux distribution information.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// GetDistro returns distro information if this is a Linux platform.
// Returns nil for non-Linux platforms or if distro detection failed.
func (i *Info) GetDistro() *Distro {
	if i.OS != "linux" || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

// IsLinux returns true if the host is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the host is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the host is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// PlatformArch converts the detected host into a release identifier.
// It fails with an *UnsupportedError when no Tor Browser build exists for
// the host pair.
func (i *Info) PlatformArch() (PlatformArch, error) {
	return FromValues(i.OS, i.Arch)
}

// Detector is the interface for host detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
