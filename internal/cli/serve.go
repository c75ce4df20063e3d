package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matzehuels/platepack/internal/server"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the solver over HTTP",
		Long: `Serve the solver over HTTP.

Endpoints:
  POST /v1/solve       solve an instance ({"text": ...} or {"instance": {...}})
  GET  /v1/runs        list archived runs
  GET  /v1/runs/{id}   fetch one archived run
  GET  /healthz        liveness and version

Request budgets are capped by server.max_timeout_ms and instance sizes by
server.max_circuits and server.max_cells in the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := []server.Option{
		server.WithLogger(c.Logger),
		server.WithDefaults(cfg.Solve.Options()),
		server.WithLimits(cfg.Server.MaxTimeoutMS, cfg.Server.MaxCircuits, cfg.Server.MaxCells),
		server.WithConcurrency(cfg.Server.Concurrency),
	}
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
		opts = append(opts, server.WithStore(st))
	}

	err = server.New(runner, opts...).ListenAndServe(ctx, addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
