// Package ingest accepts agent connections and feeds their records into the
// host registry.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pires/go-proxyproto"

	"github.com/rileyhilliard/hostwatch/internal/logger"
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Server accepts TCP connections and runs one Session per connection.
type Server struct {
	store         Store
	log           logger.Logger
	stats         *Stats
	maxLine       int
	idleTimeout   time.Duration
	proxyProtocol bool

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
	readyMu  sync.Once
	sessions sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Sessions inherit it.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithStats records activity into st instead of a private Stats.
func WithStats(st *Stats) Option {
	return func(s *Server) { s.stats = st }
}

// WithMaxLineLength bounds the size of a single line.
func WithMaxLineLength(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLine = n
		}
	}
}

// WithIdleTimeout closes connections that send nothing for d. Zero disables it.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) { s.idleTimeout = d }
}

// WithProxyProtocol accepts an optional PROXY protocol header on each
// connection so log lines show the agent's real address behind a balancer.
func WithProxyProtocol(enabled bool) Option {
	return func(s *Server) { s.proxyProtocol = enabled }
}

// NewServer creates a server writing into store.
func NewServer(store Store, opts ...Option) *Server {
	s := &Server{
		store:   store,
		log:     logger.Noop(),
		stats:   NewStats(),
		maxLine: DefaultMaxLineLength,
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats returns the server's counters.
func (s *Server) Stats() *Stats {
	return s.stats
}

// Ready is closed once the server is accepting connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the listening address, or nil before Serve starts.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ListenAndServe binds addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled or the listener
// fails. On return the listener is closed and every session has finished.
// Cancellation yields nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.proxyProtocol {
		ln = &proxyproto.Listener{Listener: ln}
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.readyMu.Do(func() { close(s.ready) })

	s.log.Info("listening on %s", ln.Addr())

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })

	err := s.acceptLoop(ctx, ln)

	stop()
	cancel()
	_ = ln.Close()
	s.sessions.Wait()

	if err != nil {
		return err
	}
	s.log.Info("stopped accepting connections")
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("listener closed: %w", err)
			}

			if delay == 0 {
				delay = minAcceptDelay
			} else {
				delay *= 2
			}
			if delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			s.log.Warn("accept failed: %v; retrying in %s", err, delay)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		delay = 0

		s.sessions.Add(1)
		go func() {
			defer s.sessions.Done()
			s.handle(ctx, conn)
		}()
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	id := uuid.NewString()[:8]
	s.stats.sessionOpened()
	defer s.stats.sessionClosed()

	sess := NewSession(id, conn, s.store,
		WithSessionLogger(s.log),
		WithSessionStats(s.stats),
		WithSessionMaxLineLength(s.maxLine),
		WithSessionIdleTimeout(s.idleTimeout),
	)

	// With PROXY protocol, RemoteAddr blocks reading the header; only
	// closing the conn interrupts it.
	stop := context.AfterFunc(ctx, func() { _ = sess.Close() })
	defer stop()

	remote := conn.RemoteAddr()
	s.log.Debug("[%s] connection from %s", id, remote)

	if err := sess.Serve(ctx); err != nil {
		s.log.Info("[%s] connection from %s closed: %v", id, remote, err)
		return
	}
	s.log.Debug("[%s] connection closed", id)
}
