package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/testutil"
)

// listingServer serves a repository listing of versions at "/".
func listingServer(t *testing.T, versions ...string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(testutil.ListingPage(versions...)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_Dispatch(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no_args_prints_help", nil, 0, "Usage:", ""},
		{"help", []string{"help"}, 0, "torfetch retrieve", ""},
		{"version_flag", []string{"--version"}, 0, "torfetch " + Version, ""},
		{"unknown_command", []string{"frobnicate"}, 1, "", "unknown command: frobnicate"},
		{"subcommand_help", []string{"latest", "--help"}, 0, "", "Usage: torfetch latest"},
		{"unknown_flag", []string{"versions", "--nope"}, 1, "", "unknown flag: --nope"},
		{"extra_argument", []string{"latest", "extra"}, 1, "", "unexpected argument: extra"},
		{"too_many_targets", []string{"retrieve", "a", "b"}, 1, "", "at most one directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr)
			}
			if !strings.Contains(stdout, tt.wantStdout) {
				t.Errorf("stdout = %q, want containing %q", stdout, tt.wantStdout)
			}
			if !strings.Contains(stderr, tt.wantStderr) {
				t.Errorf("stderr = %q, want containing %q", stderr, tt.wantStderr)
			}
		})
	}
}

func TestRun_Latest(t *testing.T) {
	srv := listingServer(t, "11.5.8", "12.0.1", "12.0a4", "9.0")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"stable", []string{"latest", "--repository", srv.URL}, "12.0.1\n"},
		{"alpha", []string{"latest", "--repository", srv.URL, "-b", "alpha"}, "12.0a4\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(tt.args...)
			if code != 0 {
				t.Fatalf("exit code = %d, stderr: %s", code, stderr)
			}
			if stdout != tt.want {
				t.Errorf("stdout = %q, want %q", stdout, tt.want)
			}
		})
	}
}

func TestRun_Versions(t *testing.T) {
	srv := listingServer(t, "12.0.1", "9.0", "11.5.8", "12.0a4")

	code, stdout, stderr := runCLI("versions", "--repository", srv.URL)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	if want := "9.0\n11.5.8\n12.0.1\n"; stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

func TestRun_VersionsEmptyBranch(t *testing.T) {
	srv := listingServer(t, "12.0.1")

	code, _, stderr := runCLI("versions", "--repository", srv.URL, "--branch", "alpha")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "alpha") {
		t.Errorf("stderr = %q, want the branch named", stderr)
	}
}

func TestRun_InvalidBranch(t *testing.T) {
	code, _, stderr := runCLI("latest", "--branch", "nightly")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "unknown branch") {
		t.Errorf("stderr = %q, want unknown branch", stderr)
	}
}

func TestRun_Config(t *testing.T) {
	code, stdout, stderr := runCLI("config", "--release", "12.0.1", "--target", "/opt/tor", "--max-redirects", "-1")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	for _, want := range []string{
		"torfetch = {",
		`version = "12.0.1"`,
		`target = "/opt/tor"`,
		"max_redirects = -1",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
}
