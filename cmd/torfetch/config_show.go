package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/config"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/platform"
)

// runConfig prints the effective configuration as a config file, so that
// `torfetch config > torfetch.lua` pins the current settings.
func runConfig(args []string, stdout, stderr io.Writer) error {
	var o options
	flags := newFlagSet("config", stderr)
	o.addSourceFlags(flags)
	o.addReleaseFlags(flags)
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

	out, err := config.NewGenerator().Generate(cfg)
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, out)
	return nil
}
