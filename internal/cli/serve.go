package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/hopgraph/pkg/observability"
	"github.com/matzehuels/hopgraph/pkg/scheduler"
	"github.com/matzehuels/hopgraph/pkg/server"
)

type serveOptions struct {
	addr      string
	noMetrics bool
}

func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve [runs]",
		Short: "Serve a live layout over HTTP",
		Long: `Serve runs the layout continuously and exposes it over a JSON API.

Runs can be given on the command line or uploaded later with
PUT /api/v1/runs. Clients poll /api/v1/scene for frames and change the
selection or container size while the simulation keeps running.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeRunFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "disable the /metrics endpoint")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, args []string, opts serveOptions) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}

	var reg *prometheus.Registry
	if cfg.Server.Metrics && !opts.noMetrics {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		observability.NewMetrics(reg).Register()
		defer observability.Reset()
	}

	schedOpts := cfg.SchedulerOptions()
	schedOpts.Logger = c.Logger
	driver := scheduler.NewDriver(scheduler.New(schedOpts), cfg.Scheduler.Frame)

	srv := server.New(driver, server.Options{
		Addr:            addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Registry:        reg,
		Source:          c.sourceOptions(cfg),
		Logger:          c.Logger,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	if len(args) == 1 {
		g.Go(func() error {
			rf, err := c.loadRuns(ctx, cfg, args[0])
			if err != nil {
				return err
			}
			_, err = srv.SetResults(ctx, rf)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// Run returns nil on a clean shutdown; report the interrupt.
	return cmd.Context().Err()
}
