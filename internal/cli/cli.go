// Package cli implements the hopgraph command-line interface.
package cli

import (
	"context"
	"io"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hopgraph/pkg/buildinfo"
	"github.com/matzehuels/hopgraph/pkg/cache"
	"github.com/matzehuels/hopgraph/pkg/config"
	"github.com/matzehuels/hopgraph/pkg/errors"
	"github.com/matzehuels/hopgraph/pkg/runs"
	"github.com/matzehuels/hopgraph/pkg/source"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
	refresh    bool
	config     *config.Config
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "hopgraph",
		Short: "hopgraph lays out navigation runs as a force-directed hop graph",
		Long: `hopgraph reads recorded article-to-article navigation runs, merges them into
one graph of visited articles and lays that graph out with a force simulation.
Start and destination articles are pinned on a ring; everything in between
settles freely. Select a run to see its path highlighted.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}
	root.Version = buildinfo.Version
	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default "+config.Path()+")")
	flags.BoolVar(&c.noCache, "no-cache", false, "do not read or write the download cache")
	flags.BoolVar(&c.refresh, "refresh", false, "re-download remote run files even if cached")
	_ = root.RegisterFlagCompletionFunc("config", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"toml"}, cobra.ShellCompDirectiveFilterFileExt
	})

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.config = cfg
	return cfg, nil
}

func (c *CLI) newCache() cache.Cache {
	if c.noCache {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache("")
	if err != nil {
		c.Logger.Warn("cache disabled", "error", err)
		return cache.NewNullCache()
	}
	return fc
}

func (c *CLI) sourceOptions(cfg *config.Config) source.Options {
	return source.Options{
		Timeout:  cfg.Source.Timeout,
		Retries:  cfg.Source.Retries,
		CacheTTL: cfg.Source.CacheTTL,
		Cache:    c.newCache(),
		Refresh:  c.refresh,
		Logger:   c.Logger,
	}
}

// loadRuns reads runs from arg, showing a spinner for remote sources.
func (c *CLI) loadRuns(ctx context.Context, cfg *config.Config, arg string) (*runs.ResultsFile, error) {
	logger := loggerFromContext(ctx)
	src, err := source.Open(arg, c.sourceOptions(cfg))
	if err != nil {
		return nil, err
	}

	prog := newProgress(logger)
	var spin *Spinner
	if _, remote := src.(*source.HTTP); remote {
		spin = newSpinnerWithContext(ctx, "Fetching "+src.Name())
		spin.Start()
	}
	rf, err := src.Load(ctx)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return nil, err
	}
	if len(rf.Runs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidRuns, "%s contains no runs", src.Name())
	}
	prog.done("Loaded " + pluralize(len(rf.Runs), "run") + " from " + src.Name())
	return rf, nil
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
