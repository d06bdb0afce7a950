package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/config"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/downloader"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/httpclient"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/logging"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/platform"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/torbrowser"
)

// defaultConfigPath is looked up in the working directory when --config is
// not given. A missing file there is not an error.
var defaultConfigPath = config.DefaultFileName

// options holds the command-line flags shared by the subcommands. A flag
// only overrides the config file when it was set explicitly.
type options struct {
	configPath   string
	verbosity    int
	repository   string
	branch       string
	userAgent    string
	maxRedirects int
	timeout      time.Duration

	release     string
	platform    string
	arch        string
	target      string
	concurrency int
}

func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.SortFlags = false
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: torfetch %s [options]\n\nOptions:\n", name)
		flags.PrintDefaults()
	}
	return flags
}

// addSourceFlags registers the flags that select a repository and branch.
func (o *options) addSourceFlags(flags *pflag.FlagSet) {
	def := config.Default()
	flags.StringVarP(&o.configPath, "config", "c", "", "config file (default ./"+config.DefaultFileName+" when present)")
	flags.CountVarP(&o.verbosity, "verbose", "v", "increase log verbosity, repeatable")
	flags.StringVar(&o.repository, "repository", def.Repository, "repository URL (env "+config.EnvRepository+")")
	flags.StringVarP(&o.branch, "branch", "b", string(def.Branch), "release branch: stable or alpha")
	flags.StringVar(&o.userAgent, "user-agent", def.UserAgent, "User-Agent header")
	flags.IntVar(&o.maxRedirects, "max-redirects", def.MaxRedirects, "redirect hops per request, -1 for no limit")
	flags.DurationVar(&o.timeout, "timeout", def.Timeout, "timeout per request, 0 for none")
}

// addReleaseFlags registers the flags that pick a release and its target.
func (o *options) addReleaseFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&o.release, "release", "r", "", "pin a version, e.g. 12.0.1 (default latest of branch)")
	flags.StringVar(&o.platform, "platform", "", "bundle OS in host naming: linux, darwin, windows (default native)")
	flags.StringVar(&o.arch, "arch", "", "bundle architecture: amd64, 386, x64, ia32 (default native)")
	flags.StringVarP(&o.target, "target", "t", config.DefaultTarget, "directory receiving the tor files")
	flags.IntVar(&o.concurrency, "concurrency", downloader.DefaultDecompressConcurrency, "parallel decompressions per directory")
}

// load builds the effective configuration. Precedence, lowest first: the
// defaults, the config file, the environment, explicit flags.
func (o *options) load(ctx context.Context, flags *pflag.FlagSet, getenv func(string) string, detector platform.Detector, logger logging.Logger) (*config.Config, error) {
	cfg, err := o.readConfigFile(ctx, detector, logger)
	if err != nil {
		return nil, err
	}

	if repo := getenv(config.EnvRepository); repo != "" {
		logger.Debug("repository from environment", "url", repo)
		cfg.Repository = repo
	}

	if err := o.apply(flags, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *options) readConfigFile(ctx context.Context, detector platform.Detector, logger logging.Logger) (*config.Config, error) {
	path := o.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return config.Default(), nil
			}
			return nil, fmt.Errorf("stat config file: %w", err)
		}
		path = defaultConfigPath
	}

	logger.Debug("loading config file", "path", path)
	cfg, err := config.NewParser(detector, logger).ParseFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

func (o *options) apply(flags *pflag.FlagSet, cfg *config.Config) error {
	if flags.Changed("repository") {
		cfg.Repository = o.repository
	}
	if flags.Changed("branch") {
		branch, err := torbrowser.ParseBranch(o.branch)
		if err != nil {
			return err
		}
		cfg.Branch = branch
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = o.userAgent
	}
	if flags.Changed("max-redirects") {
		cfg.MaxRedirects = o.maxRedirects
	}
	if flags.Changed("timeout") {
		cfg.Timeout = o.timeout
	}
	if flags.Changed("release") {
		cfg.Version = o.release
	}
	if flags.Changed("platform") {
		cfg.Platform = o.platform
	}
	if flags.Changed("arch") {
		cfg.Arch = o.arch
	}
	if flags.Changed("target") {
		cfg.Target = o.target
	}
	if flags.Changed("concurrency") {
		cfg.DecompressConcurrency = o.concurrency
	}
	return nil
}

func newLogger(stderr io.Writer, verbosity int) *logging.ZerologLogger {
	return logging.NewZerolog(stderr, verbosity)
}

func newClient(cfg *config.Config, logger *logging.ZerologLogger) *httpclient.Client {
	opts := []httpclient.ClientOption{
		httpclient.WithMaxRedirects(cfg.MaxRedirects),
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithLogger(logger.With("http")),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, httpclient.WithUserAgent(cfg.UserAgent))
	}
	return httpclient.New(opts...)
}

// commandContext is cancelled on interrupt.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// noArgs rejects positional arguments.
func noArgs(flags *pflag.FlagSet) error {
	if flags.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flags.Arg(0))
	}
	return nil
}
