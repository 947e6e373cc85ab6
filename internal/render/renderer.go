package render

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/rileyhilliard/hostwatch/internal/errors"
	"github.com/rileyhilliard/hostwatch/internal/ingest"
	"github.com/rileyhilliard/hostwatch/internal/logger"
	"github.com/rileyhilliard/hostwatch/internal/registry"
)

// DefaultInterval is how often the collector redraws.
const DefaultInterval = 2 * time.Second

// Source provides registry snapshots.
type Source interface {
	Snapshot() []registry.HostRecord
}

// StatsSource provides ingestion counters.
type StatsSource interface {
	Snapshot() ingest.StatsSnapshot
}

// Renderer periodically writes a snapshot of a Source.
type Renderer struct {
	source   Source
	stats    StatsSource
	out      io.Writer
	term     *termenv.Output
	terminal bool
	interval time.Duration
	format   string
	clear    bool
	log      logger.Logger
	now      func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithOutput sets where frames are written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Renderer) { r.out = w }
}

// WithInterval sets the refresh period.
func WithInterval(d time.Duration) Option {
	return func(r *Renderer) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithFormat selects table, json or yaml output.
func WithFormat(format string) Option {
	return func(r *Renderer) { r.format = format }
}

// WithClear controls whether the screen is cleared before each table.
// Clearing only ever happens when the output is a terminal.
func WithClear(enabled bool) Option {
	return func(r *Renderer) { r.clear = enabled }
}

// WithStats adds an ingestion summary to every frame.
func WithStats(s StatsSource) Option {
	return func(r *Renderer) { r.stats = s }
}

// WithLogger sets the renderer logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Renderer) { r.log = l }
}

// WithTerminal overrides terminal detection for the output.
func WithTerminal(isTerminal bool) Option {
	return func(r *Renderer) { r.terminal = isTerminal }
}

// WithClock overrides the time stamped on each frame.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// New creates a renderer for source.
func New(source Source, opts ...Option) *Renderer {
	r := &Renderer{
		source:   source,
		out:      os.Stdout,
		interval: DefaultInterval,
		format:   FormatTable,
		clear:    true,
		log:      logger.Noop(),
		now:      time.Now,
	}
	r.terminal = isTerminal(r.out)
	for _, opt := range opts {
		opt(r)
	}
	r.term = termenv.NewOutput(r.out)
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// Run draws a frame immediately and then once per interval until ctx is
// cancelled. A frame in progress is always finished before Run returns.
func (r *Renderer) Run(ctx context.Context) error {
	if err := r.RenderOnce(); err != nil {
		return err
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Debug("renderer stopped")
			return nil
		case <-ticker.C:
			if err := r.RenderOnce(); err != nil {
				return err
			}
		}
	}
}

// RenderOnce takes one snapshot and writes it.
func (r *Renderer) RenderOnce() error {
	frame := Frame{
		Time:  r.now(),
		Hosts: r.source.Snapshot(),
	}
	if r.stats != nil {
		s := r.stats.Snapshot()
		frame.Stats = &s
	}

	text, err := Format(r.format, frame)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrRender,
			"Failed to render snapshot",
			"Use one of the supported formats: table, json, yaml.")
	}

	if r.clearScreen() {
		r.term.ClearScreen()
	}

	if _, err := io.WriteString(r.out, text); err != nil {
		return errors.WrapWithCode(err, errors.ErrRender,
			"Failed to write snapshot",
			"Check that the output stream is still open.")
	}
	return nil
}

func (r *Renderer) clearScreen() bool {
	return r.clear && r.terminal && (r.format == FormatTable || r.format == "")
}
