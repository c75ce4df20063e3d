// Package cli implements the platepack command-line interface.
//
// # Commands
//
// The main commands are:
//   - solve: Pack one instance and print or write the result
//   - batch: Solve many instances concurrently
//   - render: Draw an existing result file as SVG, ASCII, or block JSON
//   - verify: Check a result file for overlaps and bounds
//   - runs: Browse, show, and delete archived runs
//   - serve: Expose the solver over HTTP
//   - cache: Manage the outcome cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context so solve progress can be reported from
// the solving goroutine.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/platepack/internal/config"
	"github.com/matzehuels/platepack/pkg/buildinfo"
	"github.com/matzehuels/platepack/pkg/pipeline"
	"github.com/matzehuels/platepack/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "platepack"
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
		Use:   appName,
		Short: "Platepack packs rectangular circuits onto a fixed-width plate",
		Long: `Platepack places rectangular circuits on a plate of fixed width so that
no two overlap and the used length is as small as possible. It solves with
a SAT search (boolean), a pseudo-boolean optimizer (arith), or both at once
(portfolio), and proves optimality when the budget allows.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/platepack/config.toml)")

	root.AddCommand(c.solveCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.verifyCommand())
	root.AddCommand(c.runsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

// config loads the configuration file once.
func (c *CLI) config() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	c.Logger.Debug("config loaded", "path", c.configPath, "cache", cfg.Cache.Backend, "store", cfg.Store.Backend)
	c.cfg = &cfg
	return cfg, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	cache, err := cfg.Cache.Open(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

// openStore opens the run archive. A nil store means archiving is disabled.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return cfg.Store.Open(ctx)
}

// =============================================================================
// Options Helpers
// =============================================================================

// solveDefaults returns the configured solve options.
func (c *CLI) solveDefaults() (pipeline.Options, error) {
	cfg, err := c.config()
	if err != nil {
		return pipeline.Options{}, err
	}
	return cfg.Solve.Options(), nil
}

// parseFormats parses a comma-separated format string into a slice.
// An empty string yields nil so configured defaults apply.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
