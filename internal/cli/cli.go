// Package cli implements the celltrack command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/celltrack/pkg/buildinfo"
	"github.com/matzehuels/celltrack/pkg/cache"
	"github.com/matzehuels/celltrack/pkg/config"
	"github.com/matzehuels/celltrack/pkg/core/experiment"
	"github.com/matzehuels/celltrack/pkg/errors"
	ctio "github.com/matzehuels/celltrack/pkg/io"
	"github.com/matzehuels/celltrack/pkg/observability"
	"github.com/matzehuels/celltrack/pkg/pipeline"
	"github.com/matzehuels/celltrack/pkg/storage"
)

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
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// EnableVerbose switches to debug logging and logs every pipeline, cache
// and HTTP event.
func (c *CLI) EnableVerbose() {
	c.SetLogLevel(LogDebug)
	h := newLogHooks(c.Logger)
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "celltrack",
		Short:        "Celltrack checks and analyzes cell lineages",
		Long:         `Celltrack loads cell tracking results, finds tracking errors, counts divisions and predicts cell fates.`,
		Version:      buildinfo.ResolvedVersion(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/celltrack/config.toml)")

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.divisionsCommand())
	root.AddCommand(c.fateCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.issuesCommand())
	root.AddCommand(c.postprocessCommand())
	root.AddCommand(c.lineageCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	var err error
	if c.configPath != "" {
		c.Config, err = config.Load(c.configPath)
	} else {
		c.Config, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}
	c.Logger.Debug("loaded config", "path", c.configPath, "cache", c.Config.Cache.Dir, "store", c.Config.Store.Backend)
	return nil
}

// =============================================================================
// Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, nil, c.Logger), nil
}

// newCache picks Redis when configured and the file cache otherwise. An
// unreachable Redis falls back to the file cache.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	if noCache || cfg.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err == nil {
			return rc, nil
		}
		c.Logger.Warn("redis unavailable, using file cache", "error", err)
	}
	if cfg.Dir == "" {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(cfg.Dir)
}

func (c *CLI) openStore(ctx context.Context) (storage.Store, error) {
	cfg := c.Config.Store
	if cfg.Backend == "" || cfg.Backend == storage.BackendBolt {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	return storage.Open(ctx, cfg)
}

// loadExperiment imports a data file and applies the configured settings.
func (c *CLI) loadExperiment(path string, opts ...ctio.ReadOption) (*experiment.Experiment, error) {
	prog := newProgress(c.Logger)
	exp, err := ctio.ImportJSON(path, opts...)
	if err != nil {
		return nil, err
	}
	c.Config.Apply(exp)
	prog.done(fmt.Sprintf("Loaded %d positions and %d links", exp.Positions.Len(), exp.Links.LinkCount()))
	return exp, nil
}

// readData reads a data file for the cached runner paths.
func readData(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "file not found: %s", path)
	}
	return data, err
}

// analysisOptions returns the configured overrides; flags set later win.
func (c *CLI) analysisOptions() pipeline.Options {
	return pipeline.Options{
		DivisionLookahead: c.Config.Analysis.DivisionLookahead,
		MinSpurLength:     c.Config.Analysis.MinSpurLength,
	}
}
