package ingest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats_Counters(t *testing.T) {
	s := NewStats()
	assert.Equal(t, StatsSnapshot{}, s.Snapshot())

	s.sessionOpened()
	s.sessionOpened()
	s.sessionClosed()
	s.lineAccepted()
	s.lineAccepted()
	s.lineRejected()
	s.framingFailure()
	s.capacityReject()

	snap := s.Snapshot()
	assert.EqualValues(t, 1, snap.SessionsOpen)
	assert.EqualValues(t, 2, snap.SessionsTotal)
	assert.EqualValues(t, 2, snap.LinesAccepted)
	assert.EqualValues(t, 1, snap.LinesRejected)
	assert.EqualValues(t, 1, snap.FramingFailures)
	assert.EqualValues(t, 1, snap.CapacityRejects)
	assert.EqualValues(t, 2, snap.LinesPerSecond)
}

func TestStats_Concurrent(t *testing.T) {
	s := NewStats()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				s.lineAccepted()
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 8000, s.Snapshot().LinesAccepted)
}
