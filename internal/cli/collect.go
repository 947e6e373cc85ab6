package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rileyhilliard/hostwatch/internal/config"
	"github.com/rileyhilliard/hostwatch/internal/errors"
	"github.com/rileyhilliard/hostwatch/internal/ingest"
	"github.com/rileyhilliard/hostwatch/internal/logger"
	"github.com/rileyhilliard/hostwatch/internal/registry"
	"github.com/rileyhilliard/hostwatch/internal/render"
)

// collect command flags
var (
	collectTUI      bool
	collectFormat   string
	collectInterval time.Duration
	collectMaxHosts int
	collectProxy    bool
)

// collectCmd runs the collector
var collectCmd = &cobra.Command{
	Use:   "collect <port>",
	Short: "Accept agent connections and display host metrics",
	Long: `Listen for agents on the given port (all interfaces) and redraw a table
of the latest CPU and memory readings per host.

Output goes to stdout; logs go to stderr. Use --format json or yaml to
stream machine-readable frames instead of the table, or --tui for an
interactive full-screen view.

Examples:
  hostwatch collect 7070
  hostwatch collect 7070 --interval 5s --max-hosts 256
  hostwatch collect 7070 --format json | jq .hosts`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := collectConfig(cmd, args[0])
		if err != nil {
			return err
		}
		configureLogging(cfg.Log, collectLogOutput(collectTUI))

		return newCollector(cfg).run(cmd.Context(), collectTUI, cmd.OutOrStdout())
	},
}

func init() {
	collectCmd.Flags().BoolVar(&collectTUI, "tui", false, "interactive full-screen dashboard")
	collectCmd.Flags().StringVar(&collectFormat, "format", render.FormatTable, "output format: table, json, yaml")
	collectCmd.Flags().DurationVar(&collectInterval, "interval", render.DefaultInterval, "refresh interval (e.g., 2s, 500ms)")
	collectCmd.Flags().IntVar(&collectMaxHosts, "max-hosts", registry.DefaultMaxHosts, "maximum number of distinct hosts")
	collectCmd.Flags().BoolVar(&collectProxy, "proxy-protocol", false, "accept PROXY protocol headers from a load balancer")
	rootCmd.AddCommand(collectCmd)
}

// collectConfig loads the config file and applies the port argument and any
// flags given explicitly on the command line.
func collectConfig(cmd *cobra.Command, portArg string) (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	port, err := parsePort(portArg, true)
	if err != nil {
		return nil, err
	}
	cfg.Listen.Port = port

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Render.Format = collectFormat
	}
	if flags.Changed("interval") {
		cfg.Render.Interval = collectInterval
	}
	if flags.Changed("max-hosts") {
		cfg.Collector.MaxHosts = collectMaxHosts
	}
	if flags.Changed("proxy-protocol") {
		cfg.Listen.ProxyProtocol = collectProxy
	}

	if err := config.ValidateCollector(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// collectLogOutput keeps log lines off the screen while the full-screen
// dashboard owns it.
func collectLogOutput(tui bool) io.Writer {
	if tui {
		return io.Discard
	}
	return os.Stderr
}

// collector wires the registry, ingestion server and stats for one run.
type collector struct {
	cfg   *config.Config
	reg   *registry.Registry
	stats *ingest.Stats
	srv   *ingest.Server
	log   logger.Logger
}

func newCollector(cfg *config.Config) *collector {
	reg := registry.New(cfg.Collector.MaxHosts)
	stats := ingest.NewStats()
	return &collector{
		cfg:   cfg,
		reg:   reg,
		stats: stats,
		srv: ingest.NewServer(reg,
			ingest.WithLogger(logger.New("ingest")),
			ingest.WithStats(stats),
			ingest.WithMaxLineLength(cfg.Collector.MaxLineLength),
			ingest.WithIdleTimeout(cfg.Collector.IdleTimeout),
			ingest.WithProxyProtocol(cfg.Listen.ProxyProtocol),
		),
		log: logger.New("collect"),
	}
}

// run listens on the configured address and renders the registry until ctx
// is cancelled, the listener fails, or the dashboard is closed. Listener
// failures are returned; everything per connection is handled inside the
// server.
func (c *collector) run(ctx context.Context, tui bool, out io.Writer) error {
	addr := c.cfg.Listen.Address()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := c.srv.ListenAndServe(gctx, addr)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		if c.srv.Addr() == nil {
			return errors.WrapWithCode(err, errors.ErrListen,
				fmt.Sprintf("Can't listen on %s", addr),
				"Check that nothing else is using the port and that you're allowed to bind it.")
		}
		return errors.WrapWithCode(err, errors.ErrListen,
			"The listener stopped unexpectedly",
			"Restart the collector; agents will reconnect on their own.")
	})

	g.Go(func() error {
		select {
		case <-c.srv.Ready():
		case <-gctx.Done():
			return nil
		}
		c.log.Info("collector ready on %s (max %d hosts)", c.srv.Addr(), c.cfg.Collector.MaxHosts)

		var statsSource render.StatsSource
		if c.cfg.Render.Stats {
			statsSource = c.stats
		}

		if tui {
			// Closing the dashboard stops the collector.
			defer cancel()
			return render.RunDashboard(gctx, render.NewDashboard(c.reg, statsSource, c.cfg.Render.Interval))
		}

		opts := []render.Option{
			render.WithOutput(out),
			render.WithInterval(c.cfg.Render.Interval),
			render.WithFormat(c.cfg.Render.Format),
			render.WithClear(c.cfg.Render.Clear),
			render.WithLogger(logger.New("render")),
		}
		if statsSource != nil {
			opts = append(opts, render.WithStats(statsSource))
		}
		return render.New(c.reg, opts...).Run(gctx)
	})

	err := g.Wait()
	c.log.Info("collector stopped")
	return err
}
