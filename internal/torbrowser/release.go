// Package torbrowser names Tor Browser releases and discovers them on a
// directory-listing repository.
package torbrowser

import (
	"context"
	"fmt"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/platform"
)

// Release identifies one downloadable bundle.
type Release struct {
	Version      string
	PlatformArch platform.PlatformArch
}

// NewRelease builds a Release from an already resolved PlatformArch.
func NewRelease(version string, pa platform.PlatformArch) Release {
	return Release{Version: version, PlatformArch: pa}
}

// ReleaseFromValues builds a Release from host OS and arch names.
func ReleaseFromValues(version, nativePlatform, nativeArch string) (Release, error) {
	pa, err := platform.FromValues(nativePlatform, nativeArch)
	if err != nil {
		return Release{}, err
	}
	return NewRelease(version, pa), nil
}

// ReleaseFromBranch resolves the latest version of branch on repo. A nil
// repo uses the default repository.
func ReleaseFromBranch(ctx context.Context, branch Branch, pa platform.PlatformArch, repo *Repository) (Release, error) {
	if repo == nil {
		var err error
		repo, err = NewRepository("", nil)
		if err != nil {
			return Release{}, err
		}
	}

	version, err := repo.LatestVersion(ctx, branch)
	if err != nil {
		return Release{}, err
	}
	return NewRelease(version, pa), nil
}

// Platform is a shorthand for r.PlatformArch.Platform.
func (r Release) Platform() platform.ReleasePlatform {
	return r.PlatformArch.Platform
}

// Filename returns the browser archive name, e.g.
// tor-browser-linux64-12.0.1_en-US.mar.
func (r Release) Filename() string {
	return fmt.Sprintf("tor-browser-%s-%s_en-US.mar", r.PlatformArch, r.Version)
}

// MarToolsFilename returns the tooling archive name, e.g. mar-tools-mac64.zip.
func (r Release) MarToolsFilename() string {
	return fmt.Sprintf("mar-tools-%s.zip", r.PlatformArch.ToolingArchEncoding())
}

// MarToolsRelease returns the release whose mar-tools archive runs on host.
// The unpack tool executes locally, so it follows the host rather than the
// platform of the browser being fetched.
func (r Release) MarToolsRelease(host platform.PlatformArch) Release {
	return NewRelease(r.Version, host)
}

func (r Release) String() string {
	return r.Version + " " + r.PlatformArch.String()
}
