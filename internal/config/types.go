package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/httpclient"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/platform"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/torbrowser"
)

// Config holds every setting of a retrieval.
type Config struct {
	// Repository URL; empty selects the official repository.
	Repository string

	// Branch used when Version is empty.
	Branch torbrowser.Branch

	// Version pins a release, e.g. "12.0.1". Empty means latest of Branch.
	Version string

	// Platform and Arch select the bundle in host naming (linux/amd64,
	// win32/ia32, darwin/x64 ...). Both empty means the native host.
	Platform string
	Arch     string

	// Target directory receiving the tor files.
	Target string

	// MaxRedirects per request; negative disables the limit.
	MaxRedirects int

	// Timeout per request; zero disables it.
	Timeout time.Duration

	UserAgent string

	// DecompressConcurrency bounds parallel decompression per directory.
	DecompressConcurrency int
}

// Default returns the settings used for keys a config file leaves out.
func Default() *Config {
	return &Config{
		Repository:   torbrowser.DefaultRepositoryURL,
		Branch:       torbrowser.BranchStable,
		Target:       DefaultTarget,
		MaxRedirects: httpclient.DefaultMaxRedirects,
		Timeout:      DefaultTimeout,
		UserAgent:    httpclient.DefaultUserAgent,
	}
}

// PlatformArch returns the configured bundle platform, or native when
// neither Platform nor Arch is set.
func (c *Config) PlatformArch(native platform.PlatformArch) (platform.PlatformArch, error) {
	if c.Platform == "" && c.Arch == "" {
		return native, nil
	}
	return platform.FromValues(c.Platform, c.Arch)
}

// Validate performs basic validation on a Config.
func (c *Config) Validate() error {
	if c.Repository != "" {
		if err := validateRepository(c.Repository); err != nil {
			return &ValidationError{Field: luaFieldRepository, Message: err.Error()}
		}
	}

	if _, err := torbrowser.ParseBranch(string(c.Branch)); err != nil {
		return &ValidationError{Field: luaFieldBranch, Message: err.Error()}
	}

	if c.Version != "" {
		if _, err := torbrowser.VersionKey(c.Version); err != nil {
			return &ValidationError{Field: luaFieldVersion, Message: err.Error()}
		}
	}

	if (c.Platform == "") != (c.Arch == "") {
		return &ValidationError{Field: luaFieldPlatform, Message: "platform and arch must be set together"}
	}
	if c.Platform != "" {
		if _, err := platform.FromValues(c.Platform, c.Arch); err != nil {
			return &ValidationError{Field: luaFieldPlatform, Message: err.Error()}
		}
	}

	if strings.TrimSpace(c.Target) == "" {
		return &ValidationError{Field: luaFieldTarget, Message: "target cannot be empty"}
	}

	if c.Timeout < 0 {
		return &ValidationError{Field: luaFieldTimeout, Message: "timeout cannot be negative"}
	}

	if c.DecompressConcurrency < 0 || c.DecompressConcurrency > MaxDecompressConcurrency {
		return &ValidationError{
			Field:   luaFieldDecompressConcurrency,
			Message: fmt.Sprintf("must be between 0 and %d, got %d", MaxDecompressConcurrency, c.DecompressConcurrency),
		}
	}

	return nil
}

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}

func validateRepository(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid repository URL: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "https" && scheme != "http" {
		return fmt.Errorf("repository URL must use https:// or http:// scheme (got: %q)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("repository URL has no host: %s", raw)
	}
	return nil
}
