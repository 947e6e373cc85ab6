package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/hostwatch/internal/config"
	"github.com/rileyhilliard/hostwatch/internal/errors"
	"github.com/rileyhilliard/hostwatch/internal/logger"
)

// Global flags
var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "hostwatch",
	Short: "Minimal distributed CPU and memory monitoring",
	Long: `hostwatch runs lightweight agents that push CPU and memory samples
over TCP to a central collector, which keeps the latest reading per host
and redraws a table on a timer.

Examples:
  hostwatch collect 7070
  hostwatch agent collector.local 7070 web-1`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./hostwatch.yaml, then ~/.config/hostwatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context so collectors and agents shut down cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err == nil {
		return
	}

	if isUnknownCommandError(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if name := extractUnknownCommand(err); name != "" {
			fmt.Fprintf(os.Stderr, "'%s' is not a hostwatch command. ", name)
		}
		fmt.Fprintln(os.Stderr, "Run 'hostwatch --help' for usage.")
		os.Exit(2)
	}

	fmt.Fprint(os.Stderr, err.Error())
	os.Exit(1)
}

// isUnknownCommandError reports whether cobra rejected the command line
// itself rather than the command failing.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

// extractUnknownCommand pulls the quoted command name out of cobra's
// `unknown command "foo" for "hostwatch"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start == -1 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end == -1 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

// loadConfig reads the config file named by --config, or the default
// locations. --verbose overrides the configured log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func configureLogging(cfg config.LogConfig, out io.Writer) {
	logger.Configure(logger.Options{
		Level:  cfg.Level,
		Format: cfg.Format,
		Output: out,
	})
}

// parsePort validates a port argument. allowZero permits an ephemeral port.
func parsePort(arg string, allowZero bool) (int, error) {
	port, err := strconv.Atoi(arg)
	lowest := 1
	if allowZero {
		lowest = 0
	}
	if err != nil || port < lowest || port > 65535 {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' isn't a valid port", arg),
			"Use a number between 1 and 65535.")
	}
	return port, nil
}
