package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"
)

// XZ compresses content into a single xz stream.
func XZ(t testing.TB, content string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("xz writer: %v", err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("xz write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("xz close: %v", err)
	}
	return buf.Bytes()
}

// Zip builds a zip archive from slash-separated names to contents. Entries
// are written in name order.
func Zip(t testing.TB, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// ListingPage renders a directory index linking to one directory per
// version, in the format served by dist.torproject.org.
func ListingPage(versions ...string) string {
	var page strings.Builder
	page.WriteString("<html><body><pre>\n")
	page.WriteString(`<a href="../">../</a>` + "\n")
	for _, v := range versions {
		fmt.Fprintf(&page, `<a href="%s/">%s/</a>`+"\n", v, v)
	}
	page.WriteString("</pre></body></html>")
	return page.String()
}
