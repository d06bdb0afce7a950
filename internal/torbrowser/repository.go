package torbrowser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/httpclient"
)

// DefaultRepositoryURL is the official Tor Browser distribution directory.
const DefaultRepositoryURL = "https://dist.torproject.org/torbrowser/"

var (
	// ErrInvalidRepositoryURL is returned for URLs without an http(s) scheme.
	ErrInvalidRepositoryURL = errors.New("repositoryUrl must be a valid url")
	// ErrVersionNotFound is matched by every *VersionNotFoundError.
	ErrVersionNotFound = errors.New("version not found")
)

// VersionNotFoundError reports a branch with no published version.
type VersionNotFoundError struct {
	Branch Branch
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("no version found for branch %s", e.Branch)
}

// Is reports whether target is ErrVersionNotFound.
func (e *VersionNotFoundError) Is(target error) bool {
	return target == ErrVersionNotFound
}

// listingPattern finds version directories in an HTML index page.
var listingPattern = regexp.MustCompile(`<a[^>]+href="/?(\d{1,3}\.\d{1,3}[a.]?\d{0,3})/?"[^>]*>`)

// PageFetcher retrieves a page body as text. *httpclient.Client implements it.
type PageFetcher interface {
	Request(ctx context.Context, url string, opts ...httpclient.Option) (string, error)
}

// Repository is a directory-listing mirror of Tor Browser releases. It keeps
// no state besides its URL; every query fetches the listing again.
type Repository struct {
	url     string
	fetcher PageFetcher
}

// NewRepository validates rawURL and returns a Repository. An empty URL
// selects DefaultRepositoryURL and a nil fetcher a default httpclient.Client.
func NewRepository(rawURL string, fetcher PageFetcher) (*Repository, error) {
	if rawURL == "" {
		rawURL = DefaultRepositoryURL
	}
	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRepositoryURL, rawURL)
	}
	if !strings.HasSuffix(rawURL, "/") {
		rawURL += "/"
	}
	if fetcher == nil {
		fetcher = httpclient.New()
	}
	return &Repository{url: rawURL, fetcher: fetcher}, nil
}

// URL returns the normalized repository URL, always ending in "/".
func (r *Repository) URL() string {
	return r.url
}

// Versions returns the distinct versions of branch listed by the
// repository, sorted ascending.
func (r *Repository) Versions(ctx context.Context, branch Branch) ([]string, error) {
	page, err := r.fetcher.Request(ctx, r.url)
	if err != nil {
		return nil, fmt.Errorf("fetch repository listing: %w", err)
	}

	seen := make(map[string]bool)
	var versions []string
	for _, m := range listingPattern.FindAllStringSubmatch(page, -1) {
		v := m[1]
		if seen[v] || !branch.Matches(v) {
			continue
		}
		seen[v] = true
		versions = append(versions, v)
	}

	SortVersions(versions)
	return versions, nil
}

// LatestVersion returns the highest version of branch.
func (r *Repository) LatestVersion(ctx context.Context, branch Branch) (string, error) {
	versions, err := r.Versions(ctx, branch)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", &VersionNotFoundError{Branch: branch}
	}
	return versions[len(versions)-1], nil
}

// ReleaseDirectoryURL returns the directory holding the files of version.
func (r *Repository) ReleaseDirectoryURL(version string) string {
	return r.url + version + "/"
}

// ReleaseURL returns the URL of the browser archive of rel.
func (r *Repository) ReleaseURL(rel Release) string {
	return r.ReleaseDirectoryURL(rel.Version) + rel.Filename()
}

// MarToolsURL returns the URL of the mar-tools archive of rel.
func (r *Repository) MarToolsURL(rel Release) string {
	return r.ReleaseDirectoryURL(rel.Version) + rel.MarToolsFilename()
}
