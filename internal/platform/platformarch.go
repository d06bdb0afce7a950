package platform

import (
	"errors"
	"fmt"
	"runtime"
)

// ReleasePlatform is the platform token used in Tor Browser archive names.
type ReleasePlatform string

const (
	OSX         ReleasePlatform = "osx"
	Linux       ReleasePlatform = "linux"
	Win         ReleasePlatform = "win"
	Unsupported ReleasePlatform = "__unsupported"
)

// Release arch codes.
const (
	Arch32          = "32"
	Arch64          = "64"
	ArchUnsupported = "__unsupported"
)

// ErrUnsupported is matched by every *UnsupportedError.
var ErrUnsupported = errors.New("unsupported platform architecture")

// UnsupportedError reports a host pair with no Tor Browser build.
type UnsupportedError struct {
	Platform string
	Arch     string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported platform architecture: %s %s", e.Platform, e.Arch)
}

// Is reports whether target is ErrUnsupported.
func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// PlatformArch is a normalized release platform and arch pair.
// The zero value is not valid; build one with FromValues or Native.
type PlatformArch struct {
	Platform ReleasePlatform
	Arch     string
}

// supported lists the pairs published by the Tor Project. There is no
// 32-bit macOS build.
var supported = []PlatformArch{
	{Platform: OSX, Arch: Arch64},
	{Platform: Linux, Arch: Arch32},
	{Platform: Linux, Arch: Arch64},
	{Platform: Win, Arch: Arch32},
	{Platform: Win, Arch: Arch64},
}

// FromValues maps a host OS and architecture onto a PlatformArch.
func FromValues(nativePlatform, nativeArch string) (PlatformArch, error) {
	pa := PlatformArch{
		Platform: mapNativePlatform(nativePlatform),
		Arch:     mapNativeArch(nativeArch),
	}
	for _, s := range supported {
		if pa.Equals(s) {
			return pa, nil
		}
	}
	return PlatformArch{}, &UnsupportedError{Platform: nativePlatform, Arch: nativeArch}
}

// Native returns the PlatformArch of the running binary. Only entry points
// should call it; everything else takes the value as a parameter.
func Native() (PlatformArch, error) {
	return FromValues(runtime.GOOS, runtime.GOARCH)
}

// Supported returns a copy of the allow-list.
func Supported() []PlatformArch {
	out := make([]PlatformArch, len(supported))
	copy(out, supported)
	return out
}

// Equals reports pairwise field equality.
func (p PlatformArch) Equals(other PlatformArch) bool {
	return p.Platform == other.Platform && p.Arch == other.Arch
}

// String returns the platform and arch concatenated, e.g. "linux64".
func (p PlatformArch) String() string {
	return string(p.Platform) + p.Arch
}

// ToolingArchEncoding returns the name used by the mar-tools archives, which
// call macOS "mac" instead of "osx".
func (p PlatformArch) ToolingArchEncoding() string {
	platform := string(p.Platform)
	if p.Platform == OSX {
		platform = "mac"
	}
	return platform + p.Arch
}

// IsWindows reports whether binaries for this pair carry a .exe suffix.
func (p PlatformArch) IsWindows() bool {
	return p.Platform == Win
}

// IsZero reports whether p was never initialized.
func (p PlatformArch) IsZero() bool {
	return p.Platform == "" && p.Arch == ""
}
