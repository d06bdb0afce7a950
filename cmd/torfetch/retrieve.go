package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/config"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/downloader"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/logging"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/platform"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/torbrowser"
)

func runRetrieve(args []string, stdout, stderr io.Writer) error {
	var o options
	flags := newFlagSet("retrieve", stderr)
	o.addSourceFlags(flags)
	o.addReleaseFlags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}
	switch flags.NArg() {
	case 0:
	case 1:
		if err := flags.Set("target", flags.Arg(0)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("retrieve takes at most one directory, got %d", flags.NArg())
	}

	ctx, stop := commandContext()
	defer stop()

	native, err := platform.Native()
	if err != nil {
		return err
	}

	logger := newLogger(stderr, o.verbosity)
	cfg, err := o.load(ctx, flags, os.Getenv, platform.NewDetector(), logger.With("config"))
	if err != nil {
		return err
	}

	return retrieve(ctx, cfg, native, nil, logger, stdout)
}

// retrieve resolves the configured release, extracts it into cfg.Target and
// marks the tor binary executable. A nil runner executes the real unpack
// tool.
func retrieve(ctx context.Context, cfg *config.Config, native platform.PlatformArch, runner downloader.Runner, logger *logging.ZerologLogger, stdout io.Writer) error {
	pa, err := cfg.PlatformArch(native)
	if err != nil {
		return err
	}

	client := newClient(cfg, logger)
	repo, err := torbrowser.NewRepository(cfg.Repository, client)
	if err != nil {
		return err
	}

	rel, err := resolveRelease(ctx, cfg, pa, repo)
	if err != nil {
		return err
	}

	d, err := downloader.New(downloader.Config{
		Repository:            repo,
		Client:                client,
		Runner:                runner,
		Native:                native,
		Logger:                logger.With("downloader"),
		DecompressConcurrency: cfg.DecompressConcurrency,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Retrieving Tor Browser %s into %s\n", rel, cfg.Target)
	if err := d.Retrieve(ctx, cfg.Target, &rel); err != nil {
		return err
	}
	if err := downloader.AddExecutionRights(cfg.Target, pa); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "✓ %s\n", filepath.Join(cfg.Target, downloader.TorBinaryFilename(pa)))
	return nil
}

// resolveRelease pins cfg.Version when set and otherwise asks repo for the
// latest version of cfg.Branch.
func resolveRelease(ctx context.Context, cfg *config.Config, pa platform.PlatformArch, repo *torbrowser.Repository) (torbrowser.Release, error) {
	if cfg.Version != "" {
		return torbrowser.NewRelease(cfg.Version, pa), nil
	}
	return torbrowser.ReleaseFromBranch(ctx, cfg.Branch, pa, repo)
}
