package main

import (
	"fmt"
	"io"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/downloader"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/platform"
)

func runPlatform(args []string, stdout, stderr io.Writer) error {
	flags := newFlagSet("platform", stderr)
	if err := parseNoArgs(flags, args); err != nil {
		return err
	}

	ctx, stop := commandContext()
	defer stop()

	info, err := platform.NewDetector().Detect(ctx)
	if err != nil {
		return err
	}
	return printPlatform(stdout, info)
}

// printPlatform writes the host details and, when the host is supported,
// the names torfetch derives from it.
func printPlatform(w io.Writer, info *platform.Info) error {
	fmt.Fprintf(w, "os:       %s\n", info.OS)
	fmt.Fprintf(w, "arch:     %s\n", info.Arch)
	if d := info.GetDistro(); d != nil {
		fmt.Fprintf(w, "distro:   %s %s (%s)\n", d.ID, d.Version, d.Family)
	}

	pa, err := info.PlatformArch()
	if err != nil {
		fmt.Fprintln(w, "release:  unsupported")
		return err
	}
	fmt.Fprintf(w, "release:  %s\n", pa)
	fmt.Fprintf(w, "tooling:  %s\n", pa.ToolingArchEncoding())
	fmt.Fprintf(w, "binary:   %s\n", downloader.TorBinaryFilename(pa))
	return nil
}
