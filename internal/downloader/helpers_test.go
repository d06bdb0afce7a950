package downloader

import (
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/fsutil"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/platform"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/testutil"
)

var (
	linux64 = platform.PlatformArch{Platform: platform.Linux, Arch: platform.Arch64}
	osx64   = platform.PlatformArch{Platform: platform.OSX, Arch: platform.Arch64}
	win64   = platform.PlatformArch{Platform: platform.Win, Arch: platform.Arch64}
)

// bundleLayout returns the files signmar would extract for p, keyed by
// slash-separated path relative to the unpack directory.
func bundleLayout(p platform.ReleasePlatform) map[string]string {
	switch p {
	case platform.OSX:
		return map[string]string{
			"Contents/MacOS/Tor/tor.real":                      "tor binary",
			"Contents/MacOS/Tor/libevent-2.1.7.dylib":          "libevent",
			"Contents/MacOS/firefox":                           "firefox",
			"Contents/Resources/TorBrowser/Tor/torrc-defaults": "SocksPort 9050",
			"Contents/Resources/TorBrowser/Tor/geoip":          "geoip v4",
			"Contents/Resources/TorBrowser/Tor/geoip6":         "geoip v6",
		}
	default:
		bin := "tor"
		if p == platform.Win {
			bin = "tor.exe"
		}
		return map[string]string{
			"TorBrowser/Tor/" + bin:                         "tor binary",
			"TorBrowser/Tor/libevent-2.1.so.7":              "libevent",
			"TorBrowser/Tor/PluggableTransports/obfs4proxy": "obfs4proxy",
			"TorBrowser/Data/Tor/torrc-defaults":            "SocksPort 9050",
			"TorBrowser/Data/Tor/geoip":                     "geoip v4",
			"TorBrowser/Data/Tor/geoip6":                    "geoip v6",
			"Browser/firefox":                               "firefox",
		}
	}
}

func xzBytes(t *testing.T, content string) []byte {
	t.Helper()
	return testutil.XZ(t, content)
}

// writeLayout writes files xz-compressed under dir, the way they appear in
// an unpacked bundle.
func writeLayout(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, xzBytes(t, content), 0o755); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
}

func marToolsZip(t *testing.T, binary string) []byte {
	t.Helper()
	return testutil.Zip(t, map[string]string{
		"mar-tools/" + binary:        "tool",
		"mar-tools/libmozsqlite3.so": "tool",
	})
}

// releaseServer serves a repository listing and the files in files, keyed
// by URL path.
type releaseServer struct {
	*httptest.Server

	mu       sync.Mutex
	files    map[string][]byte
	requests []string
}

func newReleaseServer(t *testing.T, versions []string, files map[string][]byte) *releaseServer {
	t.Helper()

	rs := &releaseServer{files: files}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.requests = append(rs.requests, r.URL.Path)
		body, ok := rs.files[r.URL.Path]
		rs.mu.Unlock()

		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(testutil.ListingPage(versions...)))
			return
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(rs.Close)
	return rs
}

// Serve replaces the body served at path. A nil body makes path a 404.
func (rs *releaseServer) Serve(path string, body []byte) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if body == nil {
		delete(rs.files, path)
		return
	}
	rs.files[path] = body
}

func (rs *releaseServer) Requested(path string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for _, p := range rs.requests {
		if p == path {
			return true
		}
	}
	return false
}

// fakeMar stands in for signmar: it writes the bundle layout for platform,
// or layout when set, into the -C directory.
type fakeMar struct {
	t        *testing.T
	platform platform.ReleasePlatform
	layout   map[string]string
	code     int

	mu    sync.Mutex
	calls []marCall
}

type marCall struct {
	name    string
	args    []string
	dir     string
	archive []byte
	execOK  bool
}

func (f *fakeMar) Run(ctx context.Context, name string, args []string, dir string) (int, error) {
	call := marCall{name: name, args: args, dir: dir}
	if info, err := os.Stat(name); err == nil {
		call.execOK = info.Mode().Perm()&0o111 == 0o111
	}
	if len(args) == 4 {
		call.archive, _ = os.ReadFile(args[3])
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.code != 0 {
		return f.code, nil
	}
	if len(args) != 4 || args[0] != "-C" || args[2] != "-x" {
		return 2, nil
	}
	layout := f.layout
	if layout == nil {
		layout = bundleLayout(f.platform)
	}
	writeLayout(f.t, args[1], layout)
	return 0, nil
}

// renameCountingFS counts Rename calls and can fail selected operations.
type renameCountingFS struct {
	fsutil.FS

	mu           sync.Mutex
	renames      int
	renameErr    error
	mkdirAllErr  error
	removeAllErr error
}

func (c *renameCountingFS) Rename(oldpath, newpath string) error {
	c.mu.Lock()
	c.renames++
	c.mu.Unlock()
	if c.renameErr != nil {
		return c.renameErr
	}
	return c.FS.Rename(oldpath, newpath)
}

func (c *renameCountingFS) MkdirAll(path string, perm fs.FileMode) error {
	if c.mkdirAllErr != nil {
		return c.mkdirAllErr
	}
	return c.FS.MkdirAll(path, perm)
}

func (c *renameCountingFS) RemoveAll(path string) error {
	if c.removeAllErr != nil {
		return c.removeAllErr
	}
	return c.FS.RemoveAll(path)
}

func (c *renameCountingFS) Renames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renames
}

// entries lists dir, failing the test on error.
func entries(t *testing.T, dir string) []string {
	t.Helper()

	list, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	names := make([]string, 0, len(list))
	for _, e := range list {
		names = append(names, e.Name())
	}
	return names
}
