package downloader

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/torbrowser"
)

// fetch downloads the browser archive and, in parallel, the mar-tools
// archive for the native host, which is then extracted into opDir. It
// returns the local path of the browser archive.
func (d *Downloader) fetch(ctx context.Context, opDir string, rel torbrowser.Release) (string, error) {
	var archivePath string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := d.fetchFile(gctx, d.repo.ReleaseURL(rel), opDir)
		archivePath = p
		return err
	})
	g.Go(func() error {
		tools := rel.MarToolsRelease(d.native)
		p, err := d.fetchFile(gctx, d.repo.MarToolsURL(tools), opDir)
		if err != nil {
			return err
		}
		return d.unzip(p, opDir)
	})

	if err := g.Wait(); err != nil {
		return "", err
	}
	return archivePath, nil
}

// fetchFile stores the body of rawURL in dir under the last path segment of
// the URL.
func (d *Downloader) fetchFile(ctx context.Context, rawURL, dir string) (string, error) {
	name, err := fileNameOf(rawURL)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(dir, name)

	sink, err := d.fsys.Create(dest)
	if err != nil {
		return "", err
	}

	d.logger.Debug("downloading", "url", rawURL, "dest", dest)
	if err := d.client.RequestStream(ctx, sink, rawURL); err != nil {
		return "", err
	}
	return dest, nil
}

func fileNameOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return "", fmt.Errorf("url %q has no file name", rawURL)
	}
	return name, nil
}
