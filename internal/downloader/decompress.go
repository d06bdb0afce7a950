package downloader

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

const decompressedSuffix = ".decompressed"

// decompressTree replaces every regular file under root with its xz-decoded
// contents. Directories are walked from an explicit stack; the files of one
// directory are decoded concurrently, at most d.concurrency at a time.
// Symlinks and other special entries are left alone.
func (d *Downloader) decompressTree(ctx context.Context, root string) error {
	stack := []string{root}

	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := d.fsys.ReadDir(dir)
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.concurrency)
		for _, entry := range entries {
			p := filepath.Join(dir, entry.Name())
			switch {
			case entry.IsDir():
				stack = append(stack, p)
			case entry.Type().IsRegular():
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					return d.decompressFile(p)
				})
			}
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	return nil
}

func (d *Downloader) decompressFile(p string) error {
	tmp := p + decompressedSuffix
	if err := d.decompress(p, tmp); err != nil {
		return err
	}
	if err := d.fsys.Remove(p); err != nil {
		return err
	}
	if err := d.fsys.Rename(tmp, p); err != nil {
		return err
	}
	d.logger.Debug("decompressed", "file", p)
	return nil
}
