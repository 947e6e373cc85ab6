package cli

import (
	"context"
	"io"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/hostwatch/internal/config"
	hwerrors "github.com/rileyhilliard/hostwatch/internal/errors"
	"github.com/rileyhilliard/hostwatch/internal/registry"
	"github.com/rileyhilliard/hostwatch/internal/render"
)

// newCollectFlags returns a command carrying the collect flags, bound to the
// same variables, with args parsed.
func newCollectFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "collect"}
	cmd.Flags().StringVar(&collectFormat, "format", render.FormatTable, "")
	cmd.Flags().DurationVar(&collectInterval, "interval", render.DefaultInterval, "")
	cmd.Flags().IntVar(&collectMaxHosts, "max-hosts", registry.DefaultMaxHosts, "")
	cmd.Flags().BoolVar(&collectProxy, "proxy-protocol", false, "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestCollectConfig_FileValues(t *testing.T) {
	useConfig(t, `
collector:
  max_hosts: 8
render:
  interval: 5s
  format: yaml
`)

	cfg, err := collectConfig(newCollectFlags(t), "9000")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Listen.Port)
	assert.Equal(t, 8, cfg.Collector.MaxHosts)
	assert.Equal(t, 5*time.Second, cfg.Render.Interval)
	assert.Equal(t, config.FormatYAML, cfg.Render.Format)
	assert.False(t, cfg.Listen.ProxyProtocol)
}

func TestCollectConfig_FlagsOverrideFile(t *testing.T) {
	useConfig(t, `
collector:
  max_hosts: 8
render:
  format: yaml
`)

	cmd := newCollectFlags(t, "--max-hosts", "500", "--format", "json", "--interval", "250ms", "--proxy-protocol")
	cfg, err := collectConfig(cmd, "0")
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Listen.Port, "port 0 asks for an ephemeral port")
	assert.Equal(t, 500, cfg.Collector.MaxHosts)
	assert.Equal(t, config.FormatJSON, cfg.Render.Format)
	assert.Equal(t, 250*time.Millisecond, cfg.Render.Interval)
	assert.True(t, cfg.Listen.ProxyProtocol)
}

func TestCollectConfig_Errors(t *testing.T) {
	useConfig(t, "")

	_, err := collectConfig(newCollectFlags(t), "not-a-port")
	require.Error(t, err)
	assert.True(t, hwerrors.IsCode(err, hwerrors.ErrConfig))

	_, err = collectConfig(newCollectFlags(t, "--max-hosts", "0"), "7070")
	require.Error(t, err)
	assert.True(t, hwerrors.IsCode(err, hwerrors.ErrConfig))

	_, err = collectConfig(newCollectFlags(t, "--format", "xml"), "7070")
	require.Error(t, err)
	assert.True(t, hwerrors.IsCode(err, hwerrors.ErrConfig))
}

func TestCollector_StreamsFrames(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Listen.Host = "127.0.0.1"
	cfg.Listen.Port = 0
	cfg.Render.Format = config.FormatJSON
	cfg.Render.Interval = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := newCollector(cfg)
	out := &lockedBuffer{}
	done := make(chan error, 1)
	go func() { done <- c.run(ctx, false, out) }()

	select {
	case <-c.srv.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not start listening")
	}

	conn, err := net.Dial("tcp", c.srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("CPU;web-1;42.0;30.0;12.0;58.0\nMEM;web-1;512;256;0;0\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return containsAll(out.String(), `"id":"web-1"`, `"has_mem":true`, `"lines_accepted":2`)
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}
}

func TestCollector_PortInUse(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	cfg := config.DefaultConfig()
	cfg.Listen.Host = "127.0.0.1"
	cfg.Listen.Port = taken.Addr().(*net.TCPAddr).Port
	cfg.Render.Format = config.FormatJSON

	out := &lockedBuffer{}
	done := make(chan error, 1)
	go func() { done <- newCollector(cfg).run(context.Background(), false, out) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, hwerrors.IsCode(err, hwerrors.ErrListen))
		assert.Contains(t, err.Error(), "Can't listen on")
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}
	assert.Empty(t, out.String(), "nothing is rendered without a listener")
}

func TestCollectLogOutput(t *testing.T) {
	assert.Equal(t, io.Discard, collectLogOutput(true), "the dashboard owns the screen")
	assert.Equal(t, os.Stderr, collectLogOutput(false))
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
