package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches args to a subcommand and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printHelp(stdout)
		return 0
	}

	var err error
	switch args[0] {
	case "--version", "version":
		fmt.Fprintf(stdout, "torfetch %s\n", Version)
		return 0
	case "help", "--help", "-h":
		printHelp(stdout)
		return 0
	case "retrieve":
		err = runRetrieve(args[1:], stdout, stderr)
	case "latest":
		err = runLatest(args[1:], stdout, stderr)
	case "versions":
		err = runVersions(args[1:], stdout, stderr)
	case "platform":
		err = runPlatform(args[1:], stdout, stderr)
	case "config":
		err = runConfig(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Error: unknown command: %s\n", args[0])
		fmt.Fprintln(stderr, "Run 'torfetch help' for usage.")
		return 1
	}

	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "torfetch - fetch the tor binary out of a Tor Browser release")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  torfetch --version                 Show version information")
	fmt.Fprintln(w, "  torfetch retrieve [options] [dir]  Download and extract tor into dir")
	fmt.Fprintln(w, "  torfetch latest [options]          Print the latest version of a branch")
	fmt.Fprintln(w, "  torfetch versions [options]        List the versions of a branch")
	fmt.Fprintln(w, "  torfetch platform                  Show the detected host platform")
	fmt.Fprintln(w, "  torfetch config [options]          Print the effective configuration")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'torfetch <command> --help' for the options of a command.")
}
