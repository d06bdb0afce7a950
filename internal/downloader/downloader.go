// Package downloader retrieves a Tor Browser release and leaves the
// standalone tor daemon with its data files in a target directory.
//
// A retrieval runs through fixed stages inside a scratch directory:
//
//  1. resolve the release (latest stable when none is given)
//  2. fetch the browser archive and the mar-tools archive concurrently
//  3. unpack the browser archive with the signmar tool
//  4. move the tor directory and its data files into the target
//  5. decompress every file of the target in place
//
// The scratch directory is removed whatever the outcome.
package downloader

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/archive"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/fsutil"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/httpclient"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/logging"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/operation"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/platform"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/torbrowser"
)

// DefaultDecompressConcurrency bounds the files decompressed at once within
// one directory.
const DefaultDecompressConcurrency = 8

// ErrNativeRequired is returned by New when Config.Native is unset.
var ErrNativeRequired = errors.New("native platform architecture is required")

// Streamer streams a URL body into a sink. *httpclient.Client implements it.
type Streamer interface {
	RequestStream(ctx context.Context, sink io.WriteCloser, url string, opts ...httpclient.Option) error
}

// Config holds the collaborators of a Downloader. Only Native is required.
type Config struct {
	// Repository to fetch from. Defaults to the official repository.
	Repository *torbrowser.Repository
	// Client downloads the archives. Defaults to httpclient.New().
	Client Streamer
	// FS performs filesystem operations. Defaults to fsutil.OS().
	FS fsutil.FS
	// Runner executes the unpack tool. Defaults to ExecRunner.
	Runner Runner
	// Native is the host the unpack tool runs on.
	Native platform.PlatformArch
	// TempDir is the parent of scratch directories. Defaults to os.TempDir().
	TempDir string
	Logger  logging.Logger
	// DecompressConcurrency defaults to DefaultDecompressConcurrency.
	DecompressConcurrency int
}

// Downloader performs retrievals. It is safe to call Retrieve concurrently
// for different targets.
type Downloader struct {
	repo        *torbrowser.Repository
	client      Streamer
	fsys        fsutil.FS
	runner      Runner
	native      platform.PlatformArch
	tempDir     string
	logger      logging.Logger
	concurrency int
	lockRefresh time.Duration

	decompress func(src, dst string) error
	unzip      func(zipPath, destDir string) error
}

// New validates cfg and fills in defaults.
func New(cfg Config) (*Downloader, error) {
	if cfg.Native.IsZero() {
		return nil, ErrNativeRequired
	}
	if !isSupported(cfg.Native) {
		return nil, &platform.UnsupportedError{Platform: string(cfg.Native.Platform), Arch: cfg.Native.Arch}
	}

	logger := logging.OrNop(cfg.Logger)

	client := cfg.Client
	if client == nil {
		client = httpclient.New(httpclient.WithLogger(logger))
	}

	repo := cfg.Repository
	if repo == nil {
		fetcher, _ := client.(torbrowser.PageFetcher)
		var err error
		repo, err = torbrowser.NewRepository("", fetcher)
		if err != nil {
			return nil, err
		}
	}

	fsys := cfg.FS
	if fsys == nil {
		fsys = fsutil.OS()
	}

	runner := cfg.Runner
	if runner == nil {
		runner = &ExecRunner{}
	}

	concurrency := cfg.DecompressConcurrency
	if concurrency <= 0 {
		concurrency = DefaultDecompressConcurrency
	}

	return &Downloader{
		repo:        repo,
		client:      client,
		fsys:        fsys,
		runner:      runner,
		native:      cfg.Native,
		tempDir:     cfg.TempDir,
		logger:      logger,
		concurrency: concurrency,
		lockRefresh: operation.LockRefreshInterval,
		decompress:  archive.DecompressXz,
		unzip:       archive.Unzip,
	}, nil
}

// Repository returns the repository releases are fetched from.
func (d *Downloader) Repository() *torbrowser.Repository {
	return d.repo
}

// Retrieve installs release into targetDir. A nil release selects the
// latest stable version for the native platform. Errors from the stages
// are returned as produced; an error removing the scratch directory is
// reported only when every stage succeeded.
func (d *Downloader) Retrieve(ctx context.Context, targetDir string, release *torbrowser.Release) (err error) {
	rel, err := d.resolve(ctx, release)
	if err != nil {
		return err
	}

	lock, err := operation.AcquireLock(ctx, targetDir)
	if err != nil {
		return err
	}
	defer lock.Release()
	defer lock.KeepAlive(d.lockRefresh)()

	op, err := operation.New(d.fsys, d.tempDir, operation.WithLogger(d.logger))
	if err != nil {
		return err
	}
	defer func() {
		cerr := op.Cleanup()
		switch {
		case cerr == nil:
		case err == nil:
			err = cerr
		default:
			d.logger.Warn("cleanup failed", "dir", op.Dir, "error", cerr)
		}
	}()

	op.Advance(operation.StateReleaseResolved)
	d.logger.Info("retrieving tor", "release", rel.String(), "target", targetDir)

	if err = d.run(ctx, op, targetDir, rel); err != nil {
		op.Fail()
		d.logger.Error("retrieval failed", "release", rel.String(), "error", err)
		return err
	}

	d.logger.Info("tor retrieved", "release", rel.String(), "target", targetDir)
	return nil
}

func (d *Downloader) resolve(ctx context.Context, release *torbrowser.Release) (torbrowser.Release, error) {
	if release != nil {
		return *release, nil
	}
	return torbrowser.ReleaseFromBranch(ctx, torbrowser.BranchStable, d.native, d.repo)
}

func (d *Downloader) run(ctx context.Context, op *operation.Operation, targetDir string, rel torbrowser.Release) error {
	if err := fsutil.IgnoreExist(d.fsys.MkdirAll(targetDir, 0o755)); err != nil {
		d.logger.Debug("create target directory failed", "dir", targetDir, "error", err)
		return err
	}
	op.Advance(operation.StateStaged)

	op.Advance(operation.StateFetching)
	archivePath, err := d.fetch(ctx, op.Dir, rel)
	if err != nil {
		return err
	}

	op.Advance(operation.StateUnpacking)
	unpackDir, err := d.unpack(ctx, op.Dir, archivePath)
	if err != nil {
		return err
	}

	op.Advance(operation.StateRelocating)
	if err := relocate(d.fsys, d.logger, unpackDir, targetDir, rel.Platform()); err != nil {
		return err
	}

	op.Advance(operation.StateDecompressing)
	return d.decompressTree(ctx, targetDir)
}

func isSupported(pa platform.PlatformArch) bool {
	for _, s := range platform.Supported() {
		if s.Equals(pa) {
			return true
		}
	}
	return false
}
