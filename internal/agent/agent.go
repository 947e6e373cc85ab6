// Package agent samples local CPU and memory usage and pushes the readings to
// a collector over TCP, reconnecting whenever the connection drops.
package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rileyhilliard/hostwatch/internal/logger"
	"github.com/rileyhilliard/hostwatch/internal/metrics"
	"github.com/rileyhilliard/hostwatch/internal/protocol"
)

// Defaults for Options fields left at zero.
const (
	DefaultInterval      = time.Second
	DefaultRetryInterval = 2 * time.Second
	DefaultDialTimeout   = 5 * time.Second
)

// Options configures an Agent.
type Options struct {
	// Interval between samples.
	Interval time.Duration
	// RetryInterval is the fixed wait between connection attempts.
	RetryInterval time.Duration
	// DialTimeout bounds each connection attempt and each write.
	DialTimeout time.Duration
	// Kinds selects the metric groups to send. Empty means all.
	Kinds  []metrics.Kind
	Logger logger.Logger
}

// Agent streams samples for one logical host id to a collector.
type Agent struct {
	addr    string
	id      string
	sampler Sampler
	opts    Options
	log     logger.Logger
	dialer  net.Dialer
}

// New creates an agent that reports as id to the collector at addr.
func New(addr, id string, sampler Sampler, opts Options) (*Agent, error) {
	if addr == "" {
		return nil, errors.New("collector address is empty")
	}
	// Reject ids the collector could never parse before dialing anything.
	if _, err := protocol.Encode(protocol.NewCPURecord(id, metrics.CPU{})); err != nil {
		return nil, fmt.Errorf("invalid host id: %w", err)
	}
	if sampler == nil {
		return nil, errors.New("sampler is nil")
	}

	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if len(opts.Kinds) == 0 {
		opts.Kinds = []metrics.Kind{metrics.KindCPU, metrics.KindMemory}
	}

	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}

	return &Agent{
		addr:    addr,
		id:      id,
		sampler: sampler,
		opts:    opts,
		log:     log,
		dialer:  net.Dialer{Timeout: opts.DialTimeout},
	}, nil
}

// Run connects and streams samples until ctx is cancelled. Connection and
// send failures close the connection and retry after RetryInterval; they are
// never returned. Run returns nil once ctx is done.
func (a *Agent) Run(ctx context.Context) error {
	policy := backoff.WithContext(backoff.NewConstantBackOff(a.opts.RetryInterval), ctx)

	err := backoff.RetryNotify(
		func() error { return a.stream(ctx) },
		policy,
		func(err error, wait time.Duration) {
			a.log.Warn("%v; reconnecting in %s", err, wait)
		},
	)
	if ctx.Err() != nil {
		a.log.Info("agent stopped")
		return nil
	}
	return err
}

// stream runs one connection. It returns nil only when ctx is cancelled.
func (a *Agent) stream(ctx context.Context) error {
	conn, err := a.dialer.DialContext(ctx, "tcp", a.addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connect to %s: %w", a.addr, err)
	}
	defer conn.Close()
	a.log.Info("connected to %s as %q", a.addr, a.id)

	ticker := time.NewTicker(a.opts.Interval)
	defer ticker.Stop()

	for {
		if err := a.send(ctx, conn); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// send samples every enabled kind and writes the lines in one write.
func (a *Agent) send(ctx context.Context, conn net.Conn) error {
	var b strings.Builder
	for _, kind := range a.opts.Kinds {
		rec, ok := a.sample(ctx, kind)
		if !ok {
			continue
		}
		line, err := protocol.Encode(rec)
		if err != nil {
			a.log.Warn("encoding %s sample: %v", kind, err)
			continue
		}
		b.WriteString(line)
		b.WriteByte(protocol.Terminator)
	}
	if b.Len() == 0 {
		return nil
	}

	if err := conn.SetWriteDeadline(time.Now().Add(a.opts.DialTimeout)); err != nil {
		return fmt.Errorf("send to %s: %w", a.addr, err)
	}
	if _, err := conn.Write([]byte(b.String())); err != nil {
		return fmt.Errorf("send to %s: %w", a.addr, err)
	}
	a.log.Debug("sent %s", strings.TrimSpace(b.String()))
	return nil
}

func (a *Agent) sample(ctx context.Context, kind metrics.Kind) (protocol.Record, bool) {
	switch kind {
	case metrics.KindCPU:
		cpu, err := a.sampler.SampleCPU(ctx)
		if errors.Is(err, ErrNoBaseline) {
			a.log.Debug("cpu baseline taken, first reading next interval")
			return protocol.Record{}, false
		}
		if err != nil {
			a.log.Warn("sampling cpu: %v", err)
			return protocol.Record{}, false
		}
		return protocol.NewCPURecord(a.id, cpu), true

	case metrics.KindMemory:
		mem, err := a.sampler.SampleMemory(ctx)
		if err != nil {
			a.log.Warn("sampling memory: %v", err)
			return protocol.Record{}, false
		}
		return protocol.NewMemoryRecord(a.id, mem), true
	}
	return protocol.Record{}, false
}
