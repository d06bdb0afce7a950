package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/config"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/platform"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/torbrowser"
)

func runLatest(args []string, stdout, stderr io.Writer) error {
	return withRepository("latest", args, stderr, func(ctx context.Context, cfg *config.Config, repo *torbrowser.Repository) error {
		version, err := repo.LatestVersion(ctx, cfg.Branch)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, version)
		return nil
	})
}

func runVersions(args []string, stdout, stderr io.Writer) error {
	return withRepository("versions", args, stderr, func(ctx context.Context, cfg *config.Config, repo *torbrowser.Repository) error {
		versions, err := repo.Versions(ctx, cfg.Branch)
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			return &torbrowser.VersionNotFoundError{Branch: cfg.Branch}
		}
		for _, v := range versions {
			fmt.Fprintln(stdout, v)
		}
		return nil
	})
}

// withRepository parses the source flags of a listing command and calls fn
// with the configured repository.
func withRepository(name string, args []string, stderr io.Writer, fn func(context.Context, *config.Config, *torbrowser.Repository) error) error {
	var o options
	flags := newFlagSet(name, stderr)
	o.addSourceFlags(flags)
	if err := parseNoArgs(flags, args); err != nil {
		return err
	}

	ctx, stop := commandContext()
	defer stop()

	logger := newLogger(stderr, o.verbosity)
	cfg, err := o.load(ctx, flags, os.Getenv, platform.NewDetector(), logger.With("config"))
	if err != nil {
		return err
	}

	repo, err := torbrowser.NewRepository(cfg.Repository, newClient(cfg, logger))
	if err != nil {
		return err
	}
	return fn(ctx, cfg, repo)
}

func parseNoArgs(flags *pflag.FlagSet, args []string) error {
	if err := flags.Parse(args); err != nil {
		return err
	}
	return noArgs(flags)
}
