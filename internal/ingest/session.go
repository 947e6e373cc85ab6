package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rileyhilliard/hostwatch/internal/logger"
	"github.com/rileyhilliard/hostwatch/internal/metrics"
	"github.com/rileyhilliard/hostwatch/internal/protocol"
	"github.com/rileyhilliard/hostwatch/internal/registry"
)

// DefaultMaxLineLength is the session read buffer size. A line, including its
// terminator, must fit in it.
const DefaultMaxLineLength = 4096

// ErrLineTooLong is returned by Session.Serve when a peer sends more than the
// maximum line length without a newline.
var ErrLineTooLong = errors.New("line exceeds maximum length")

// Store is the part of the host registry a session writes to.
type Store interface {
	UpsertCPU(id string, cpu metrics.CPU) error
	UpsertMem(id string, mem metrics.Memory) error
}

// Session reads newline-framed records from one connection and applies them
// to a Store. Malformed lines are skipped; only framing and transport errors
// end the session.
type Session struct {
	id          string
	conn        net.Conn
	store       Store
	log         logger.Logger
	stats       *Stats
	maxLine     int
	idleTimeout time.Duration

	closeOnce sync.Once
	closeErr  error

	// ids this session already warned about when the registry was full
	rejected map[string]struct{}
}

// NewSession wraps conn. The session owns conn from here on and closes it
// when Serve returns.
func NewSession(id string, conn net.Conn, store Store, opts ...SessionOption) *Session {
	s := &Session{
		id:       id,
		conn:     conn,
		store:    store,
		log:      logger.Noop(),
		stats:    NewStats(),
		maxLine:  DefaultMaxLineLength,
		rejected: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the session logger.
func WithSessionLogger(l logger.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// WithSessionStats shares a Stats instance across sessions.
func WithSessionStats(st *Stats) SessionOption {
	return func(s *Session) { s.stats = st }
}

// WithSessionMaxLineLength sets the read buffer size.
func WithSessionMaxLineLength(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.maxLine = n
		}
	}
}

// WithSessionIdleTimeout closes the session after d without any data.
func WithSessionIdleTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.idleTimeout = d }
}

// ID returns the session identifier used in log lines.
func (s *Session) ID() string {
	return s.id
}

// Serve runs the read loop until the peer disconnects, a framing or transport
// error occurs, or ctx is cancelled. It returns nil for a clean end (EOF or
// cancellation) and always leaves the connection closed.
func (s *Session) Serve(ctx context.Context) error {
	defer s.Close()

	// Blocking reads don't observe ctx; closing the conn unblocks them.
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	r := bufio.NewReaderSize(s.conn, s.maxLine)
	for {
		if s.idleTimeout > 0 {
			if err := s.conn.SetReadDeadline(time.Now().Add(s.idleTimeout)); err != nil {
				return s.readError(ctx, err)
			}
		}

		line, err := r.ReadSlice(protocol.Terminator)
		if err == nil {
			s.handleLine(line[:len(line)-1])
			continue
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			s.stats.framingFailure()
			s.log.Warn("[%s] line longer than %d bytes, closing connection", s.id, s.maxLine)
			return ErrLineTooLong
		case errors.Is(err, io.EOF):
			if len(line) > 0 {
				s.log.Debug("[%s] discarding %d bytes of unterminated input at EOF", s.id, len(line))
			}
			return nil
		default:
			return s.readError(ctx, err)
		}
	}
}

func (s *Session) readError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		s.log.Info("[%s] idle for %s, closing connection", s.id, s.idleTimeout)
		return fmt.Errorf("idle timeout: %w", err)
	}
	return fmt.Errorf("read: %w", err)
}

// handleLine applies one frame. raw aliases the reader's buffer and is only
// valid until the next read.
func (s *Session) handleLine(raw []byte) {
	if n := len(raw); n > 0 && raw[n-1] == '\r' {
		raw = raw[:n-1]
	}
	if len(raw) == 0 {
		return
	}

	rec, err := protocol.Decode(string(raw))
	if err != nil {
		s.stats.lineRejected()
		s.log.Debug("[%s] skipping malformed line: %v", s.id, err)
		return
	}

	switch rec.Kind {
	case metrics.KindCPU:
		err = s.store.UpsertCPU(rec.ID, rec.CPU)
	case metrics.KindMemory:
		err = s.store.UpsertMem(rec.ID, rec.Mem)
	}

	switch {
	case err == nil:
		s.stats.lineAccepted()
	case errors.Is(err, registry.ErrCapacityExceeded):
		s.stats.capacityReject()
		if _, seen := s.rejected[rec.ID]; !seen {
			s.rejected[rec.ID] = struct{}{}
			s.log.Warn("[%s] registry full, ignoring host %q", s.id, rec.ID)
		}
	default:
		s.stats.lineRejected()
		s.log.Warn("[%s] storing %s sample for %q: %v", s.id, rec.Kind, rec.ID, err)
	}
}

// Close closes the connection. Only the first call has any effect.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
