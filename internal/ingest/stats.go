package ingest

import (
	"sync/atomic"
	"time"

	"github.com/paulbellamy/ratecounter"
)

// Stats counts ingestion activity across all sessions. All methods are safe
// for concurrent use.
type Stats struct {
	sessionsOpen    atomic.Int64
	sessionsTotal   atomic.Int64
	linesAccepted   atomic.Int64
	linesRejected   atomic.Int64
	framingFailures atomic.Int64
	capacityRejects atomic.Int64
	rate            *ratecounter.RateCounter
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	SessionsOpen    int64 `json:"sessions_open" yaml:"sessions_open"`
	SessionsTotal   int64 `json:"sessions_total" yaml:"sessions_total"`
	LinesAccepted   int64 `json:"lines_accepted" yaml:"lines_accepted"`
	LinesRejected   int64 `json:"lines_rejected" yaml:"lines_rejected"`
	FramingFailures int64 `json:"framing_failures" yaml:"framing_failures"`
	CapacityRejects int64 `json:"capacity_rejects" yaml:"capacity_rejects"`
	LinesPerSecond  int64 `json:"lines_per_second" yaml:"lines_per_second"`
}

// NewStats creates zeroed counters with a one second rate window.
func NewStats() *Stats {
	return &Stats{rate: ratecounter.NewRateCounter(time.Second)}
}

func (s *Stats) sessionOpened() {
	s.sessionsOpen.Add(1)
	s.sessionsTotal.Add(1)
}

func (s *Stats) sessionClosed() {
	s.sessionsOpen.Add(-1)
}

func (s *Stats) lineAccepted() {
	s.linesAccepted.Add(1)
	s.rate.Incr(1)
}

func (s *Stats) lineRejected() {
	s.linesRejected.Add(1)
}

func (s *Stats) framingFailure() {
	s.framingFailures.Add(1)
}

func (s *Stats) capacityReject() {
	s.capacityRejects.Add(1)
}

// Snapshot reads every counter. Counters are read one at a time, so the
// result is not a single atomic view; it only needs to be close enough to
// display.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		SessionsOpen:    s.sessionsOpen.Load(),
		SessionsTotal:   s.sessionsTotal.Load(),
		LinesAccepted:   s.linesAccepted.Load(),
		LinesRejected:   s.linesRejected.Load(),
		FramingFailures: s.framingFailures.Load(),
		CapacityRejects: s.capacityRejects.Load(),
		LinesPerSecond:  s.rate.Rate(),
	}
}
