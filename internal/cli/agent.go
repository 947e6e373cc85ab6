package cli

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/hostwatch/internal/agent"
	"github.com/rileyhilliard/hostwatch/internal/config"
	"github.com/rileyhilliard/hostwatch/internal/errors"
	"github.com/rileyhilliard/hostwatch/internal/logger"
)

// agent command flags
var (
	agentInterval time.Duration
	agentRetry    time.Duration
	agentMetrics  []string
)

var agentCmd = &cobra.Command{
	Use:   "agent <collector-host> <port> <id>",
	Short: "Sample local CPU and memory and push them to a collector",
	Long: `Connect to a collector and send a CPU and memory sample every interval,
tagged with the given host id. If the collector is unreachable or drops the
connection, the agent waits and reconnects until it is stopped.

The id may be any text without ';' or line breaks. Several agents can share
one machine under different ids.

Examples:
  hostwatch agent collector.local 7070 web-1
  hostwatch agent 10.0.0.5 7070 db --interval 5s --metrics mem`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cfg, err := newAgent(cmd, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		configureLogging(cfg.Log, os.Stderr)
		return a.Run(cmd.Context())
	},
}

func init() {
	agentCmd.Flags().DurationVar(&agentInterval, "interval", agent.DefaultInterval, "time between samples")
	agentCmd.Flags().DurationVar(&agentRetry, "retry", agent.DefaultRetryInterval, "wait between reconnect attempts")
	agentCmd.Flags().StringSliceVar(&agentMetrics, "metrics", []string{"cpu", "mem"}, "metric groups to send (cpu, mem)")
	rootCmd.AddCommand(agentCmd)
}

// agentConfig loads the config file and applies flags given explicitly on
// the command line.
func agentConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("interval") {
		cfg.Agent.Interval = agentInterval
	}
	if flags.Changed("retry") {
		cfg.Agent.RetryInterval = agentRetry
	}
	if flags.Changed("metrics") {
		cfg.Agent.Metrics = make([]string, len(agentMetrics))
		for i, m := range agentMetrics {
			cfg.Agent.Metrics[i] = strings.ToLower(strings.TrimSpace(m))
		}
	}

	if err := config.ValidateAgent(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newAgent builds an agent from the positional arguments and config.
func newAgent(cmd *cobra.Command, host, portArg, id string) (*agent.Agent, *config.Config, error) {
	cfg, err := agentConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	port, err := parsePort(portArg, false)
	if err != nil {
		return nil, nil, err
	}

	kinds, err := agent.ParseKinds(cfg.Agent.Metrics)
	if err != nil {
		return nil, nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Can't use the configured metric groups",
			"Supported groups: cpu, mem")
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	a, err := agent.New(addr, id, agent.NewSampler(), agent.Options{
		Interval:      cfg.Agent.Interval,
		RetryInterval: cfg.Agent.RetryInterval,
		DialTimeout:   cfg.Agent.DialTimeout,
		Kinds:         kinds,
		Logger:        logger.New("agent"),
	})
	if err != nil {
		return nil, nil, errors.WrapWithCode(err, errors.ErrAgent,
			"Can't start the agent",
			"Host ids can't be empty or contain ';' or line breaks.")
	}
	return a, cfg, nil
}
