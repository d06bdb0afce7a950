package torbrowser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/httpclient"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/platform"
)

// fakeFetcher serves a fixed page and counts calls.
type fakeFetcher struct {
	page  string
	err   error
	calls int
	urls  []string
}

func (f *fakeFetcher) Request(ctx context.Context, url string, opts ...httpclient.Option) (string, error) {
	f.calls++
	f.urls = append(f.urls, url)
	return f.page, f.err
}

func listingPage(versions ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><pre>\n")
	b.WriteString(`<a href="../">../</a>` + "\n")
	for _, v := range versions {
		fmt.Fprintf(&b, `<a href="%s/">%s/</a>      01-Jan-2021 00:00    -`+"\n", v, v)
	}
	b.WriteString(`<a href="torbrowser-install.exe">torbrowser-install.exe</a>` + "\n")
	b.WriteString("</pre></body></html>\n")
	return b.String()
}

func TestNewRepository(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"default", "", DefaultRepositoryURL, false},
		{"adds_trailing_slash", "https://mirror.example.org/tor", "https://mirror.example.org/tor/", false},
		{"keeps_trailing_slash", "http://mirror.example.org/tor/", "http://mirror.example.org/tor/", false},
		{"uppercase_scheme", "HTTPS://mirror.example.org", "HTTPS://mirror.example.org/", false},
		{"ftp_rejected", "ftp://mirror.example.org/", "", true},
		{"no_scheme_rejected", "mirror.example.org", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := NewRepository(tt.url, &fakeFetcher{})
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRepositoryURL) {
					t.Fatalf("error = %v, want ErrInvalidRepositoryURL", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if repo.URL() != tt.want {
				t.Errorf("URL() = %q, want %q", repo.URL(), tt.want)
			}
		})
	}
}

func TestRepositoryLatestVersion(t *testing.T) {
	page := listingPage("10.0.0", "10.5a2", "9.12.2", "10.1.0", "10.5a1", "10.0.1")

	tests := []struct {
		branch Branch
		want   string
	}{
		{BranchStable, "10.1.0"},
		{BranchAlpha, "10.5a2"},
	}

	for _, tt := range tests {
		t.Run(string(tt.branch), func(t *testing.T) {
			fetcher := &fakeFetcher{page: page}
			repo, err := NewRepository("https://mirror.example.org/torbrowser", fetcher)
			if err != nil {
				t.Fatalf("NewRepository() error = %v", err)
			}

			got, err := repo.LatestVersion(context.Background(), tt.branch)
			if err != nil {
				t.Fatalf("LatestVersion() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("LatestVersion() = %q, want %q", got, tt.want)
			}
			if fetcher.urls[0] != "https://mirror.example.org/torbrowser/" {
				t.Errorf("fetched %q, want the repository URL", fetcher.urls[0])
			}
		})
	}
}

func TestRepositoryVersions(t *testing.T) {
	page := listingPage("10.0.0", "10.5a2", "9.12.2", "10.1.0", "10.5a1", "10.0.1", "10.0.0") +
		`<a class="x" href="/11.0a1/" title="abs">11.0a1</a>` +
		`<a href="12.0.0.1/">bad</a>` +
		`<a href="not-a-version/">nope</a>`

	repo, err := NewRepository("https://mirror.example.org/", &fakeFetcher{page: page})
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}

	stable, err := repo.Versions(context.Background(), BranchStable)
	if err != nil {
		t.Fatalf("Versions(stable) error = %v", err)
	}
	wantStable := []string{"9.12.2", "10.0.0", "10.0.1", "10.1.0"}
	if !reflect.DeepEqual(stable, wantStable) {
		t.Errorf("Versions(stable) = %v, want %v", stable, wantStable)
	}

	alpha, err := repo.Versions(context.Background(), BranchAlpha)
	if err != nil {
		t.Fatalf("Versions(alpha) error = %v", err)
	}
	wantAlpha := []string{"10.5a1", "10.5a2", "11.0a1"}
	if !reflect.DeepEqual(alpha, wantAlpha) {
		t.Errorf("Versions(alpha) = %v, want %v", alpha, wantAlpha)
	}
	for _, v := range alpha {
		if !strings.Contains(v, "a") {
			t.Errorf("alpha branch returned stable version %q", v)
		}
	}
}

func TestRepositoryLatestVersion_NotFound(t *testing.T) {
	tests := []struct {
		name   string
		page   string
		branch Branch
	}{
		{"empty_listing", listingPage(), BranchStable},
		{"no_alpha", listingPage("10.0.0", "10.0.1"), BranchAlpha},
		{"no_stable", listingPage("10.5a1"), BranchStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := NewRepository("", &fakeFetcher{page: tt.page})
			if err != nil {
				t.Fatalf("NewRepository() error = %v", err)
			}

			_, err = repo.LatestVersion(context.Background(), tt.branch)
			if !errors.Is(err, ErrVersionNotFound) {
				t.Fatalf("error = %v, want ErrVersionNotFound", err)
			}
			if !strings.Contains(err.Error(), string(tt.branch)) {
				t.Errorf("error %q does not name branch %s", err, tt.branch)
			}
		})
	}
}

func TestRepositoryFetchError(t *testing.T) {
	fetchErr := &httpclient.HTTPError{StatusCode: 503, Message: "Service Unavailable"}
	repo, err := NewRepository("", &fakeFetcher{err: fetchErr})
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}

	_, err = repo.LatestVersion(context.Background(), BranchStable)
	if httpclient.StatusCode(err) != 503 {
		t.Fatalf("error = %v, want the HTTP 503 from the fetcher", err)
	}
}

func TestRepositoryRefetchesEveryCall(t *testing.T) {
	fetcher := &fakeFetcher{page: listingPage("10.0.0")}
	repo, err := NewRepository("", fetcher)
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := repo.LatestVersion(context.Background(), BranchStable); err != nil {
			t.Fatalf("LatestVersion() error = %v", err)
		}
	}
	if fetcher.calls != 3 {
		t.Errorf("listing fetched %d times, want 3", fetcher.calls)
	}
}

func TestRepositoryURLs(t *testing.T) {
	repo, err := NewRepository("https://mirror.example.org/torbrowser", &fakeFetcher{})
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}

	rel := NewRelease("10.5a12", platform.PlatformArch{Platform: platform.OSX, Arch: platform.Arch64})

	if got, want := repo.ReleaseDirectoryURL("10.5a12"), "https://mirror.example.org/torbrowser/10.5a12/"; got != want {
		t.Errorf("ReleaseDirectoryURL() = %q, want %q", got, want)
	}
	if got, want := repo.ReleaseURL(rel), "https://mirror.example.org/torbrowser/10.5a12/tor-browser-osx64-10.5a12_en-US.mar"; got != want {
		t.Errorf("ReleaseURL() = %q, want %q", got, want)
	}
	if got, want := repo.MarToolsURL(rel), "https://mirror.example.org/torbrowser/10.5a12/mar-tools-mac64.zip"; got != want {
		t.Errorf("MarToolsURL() = %q, want %q", got, want)
	}
}

func TestRepositoryWithHTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/torbrowser/" {
			http.Redirect(w, r, "/torbrowser/", http.StatusMovedPermanently)
			return
		}
		fmt.Fprint(w, listingPage("12.0.1", "12.0.2", "12.5a3"))
	}))
	defer server.Close()

	repo, err := NewRepository(server.URL+"/torbrowser", httpclient.New())
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}

	got, err := repo.LatestVersion(context.Background(), BranchStable)
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if got != "12.0.2" {
		t.Errorf("LatestVersion() = %q, want 12.0.2", got)
	}
}
