// Package cli implements the jsontree command-line interface.
//
// jsontree turns a JSON (or YAML) document into a level-by-level tree
// diagram, finds nodes by path and serves the same pipeline over HTTP.
// Commands are built with cobra and log through charmbracelet/log.
//
// # Commands
//
//   - tree: build and lay out a document, writing the layout as JSON
//   - render: generate SVG, PNG, PDF, JSON, DOT or Mermaid output
//   - search: find a node by path
//   - explore: browse and search a document interactively
//   - serve: run the HTTP API
//   - cache, config: manage the cache and the config file
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/jsontree/internal/config"
	"github.com/matzehuels/jsontree/pkg/buildinfo"
	"github.com/matzehuels/jsontree/pkg/cache"
	"github.com/matzehuels/jsontree/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// ErrNoMatch is returned by the search command when the path matches no
// node. main maps it to exit status 1 without printing it again.
var ErrNoMatch = stderrors.New("no match found")

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
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
		Use:           appName,
		Short:         "jsontree draws JSON documents as trees",
		Long:          `jsontree turns a JSON or YAML document into a level-by-level tree diagram, highlights nodes by path, and serves the same pipeline over HTTP.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.Path()+")")

	root.AddCommand(c.treeCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

// config loads the config file once per invocation.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.resolvedConfigPath())
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// newRunner creates a pipeline runner on the configured cache backend.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	ch, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, nil, c.Logger), nil
}

// newCache opens the configured backend. A file cache that cannot be
// created degrades to no caching rather than failing the command.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	ch, err := cache.Open(ctx, cfg.CacheOptions())
	if err != nil {
		if cfg.Cache.Backend == cache.BackendFile {
			c.Logger.Warn("cache disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		return nil, err
	}
	return ch, nil
}
