// Package cli implements the kinchart command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kinchart/pkg/buildinfo"
	"github.com/matzehuels/kinchart/pkg/cache"
	"github.com/matzehuels/kinchart/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is used for the cache directory and in help text.
const appName = "kinchart"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	redisURL   string
}

// New creates a CLI that logs to w at the given level.
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
		Use:   appName,
		Short: "kinchart lays out family charts around a focus person",
		Long: `kinchart computes the geometry of a genealogical chart: ancestors above,
descendants below, every couple centered over its children, with routed
parent-child and spouse lines that never cross.

Charts are read from JSON or YAML files; layouts are written as JSON.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./"+pipeline.ConfigFileName+" if present)")
	root.PersistentFlags().StringVar(&c.redisURL, "redis", "", "use a Redis layout cache at this URL instead of the local one")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.pickCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the config file, if any. Options set on the command
// line win over the file.
func (c *CLI) loadConfig(flags pipeline.Options) (pipeline.Options, pipeline.FileConfig, error) {
	var fc pipeline.FileConfig
	path, err := pipeline.FindConfigFile(c.configPath, ".")
	if err != nil {
		return pipeline.Options{}, fc, err
	}
	if path != "" {
		if fc, err = pipeline.LoadConfigFile(path); err != nil {
			return pipeline.Options{}, fc, err
		}
		c.Logger.Debug("loaded config", "path", path)
	}

	opts := fc.Layout
	opts.Overlay(flags)
	opts.Logger = c.Logger
	return opts, fc, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner with the configured cache backend.
func (c *CLI) newRunner(ctx context.Context, cfg pipeline.CacheConfig, noCache bool) (*pipeline.Runner, error) {
	ttl, err := cfg.TTLOr(cache.TTLLayout)
	if err != nil {
		return nil, err
	}
	backend, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(backend, nil, c.Logger)
	r.TTL = ttl
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, cfg pipeline.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Disabled {
		return cache.NewNullCache(), nil
	}
	if url := firstNonEmpty(c.redisURL, cfg.Redis); url != "" {
		rc, err := cache.NewRedisCache(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		c.Logger.Debug("using redis cache")
		return rc, nil
	}

	dir := cfg.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", dir, err)
	}
	return fc, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/kinchart/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
