package cli

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/hostwatch/internal/agent"
	hwerrors "github.com/rileyhilliard/hostwatch/internal/errors"
)

func newAgentFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "agent"}
	cmd.Flags().DurationVar(&agentInterval, "interval", agent.DefaultInterval, "")
	cmd.Flags().DurationVar(&agentRetry, "retry", agent.DefaultRetryInterval, "")
	cmd.Flags().StringSliceVar(&agentMetrics, "metrics", []string{"cpu", "mem"}, "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestAgentConfig_Defaults(t *testing.T) {
	useConfig(t, "")

	cfg, err := agentConfig(newAgentFlags(t))
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Agent.Interval)
	assert.Equal(t, 2*time.Second, cfg.Agent.RetryInterval)
	assert.Equal(t, []string{"cpu", "mem"}, cfg.Agent.Metrics)
}

func TestAgentConfig_FlagsOverrideFile(t *testing.T) {
	useConfig(t, `
agent:
  interval: 10s
  retry_interval: 30s
  metrics: [cpu]
`)

	cfg, err := agentConfig(newAgentFlags(t))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Agent.Interval)
	assert.Equal(t, 30*time.Second, cfg.Agent.RetryInterval)
	assert.Equal(t, []string{"cpu"}, cfg.Agent.Metrics)

	cfg, err = agentConfig(newAgentFlags(t, "--interval", "500ms", "--retry", "1s", "--metrics", "MEM"))
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, cfg.Agent.Interval)
	assert.Equal(t, time.Second, cfg.Agent.RetryInterval)
	assert.Equal(t, []string{"mem"}, cfg.Agent.Metrics)
}

func TestAgentConfig_InvalidMetrics(t *testing.T) {
	useConfig(t, "")

	_, err := agentConfig(newAgentFlags(t, "--metrics", "disk"))
	require.Error(t, err)
	assert.True(t, hwerrors.IsCode(err, hwerrors.ErrConfig))
}

func TestNewAgent(t *testing.T) {
	useConfig(t, "")

	a, cfg, err := newAgent(newAgentFlags(t), "collector.local", "7070", "web-1")
	require.NoError(t, err)
	assert.NotNil(t, a)
	assert.Equal(t, "info", cfg.Log.Level)

	_, _, err = newAgent(newAgentFlags(t), "collector.local", "0", "web-1")
	require.Error(t, err)
	assert.True(t, hwerrors.IsCode(err, hwerrors.ErrConfig), "agents need a real port")

	_, _, err = newAgent(newAgentFlags(t), "collector.local", "7070", "bad;id")
	require.Error(t, err)
	assert.True(t, hwerrors.IsCode(err, hwerrors.ErrAgent))

	_, _, err = newAgent(newAgentFlags(t), "collector.local", "7070", "")
	require.Error(t, err)
	assert.True(t, hwerrors.IsCode(err, hwerrors.ErrAgent))
}
