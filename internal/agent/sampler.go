package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rileyhilliard/hostwatch/internal/metrics"
)

// ErrNoBaseline is returned by the first SampleCPU call. CPU usage is a rate,
// so one reading only establishes the starting counters.
var ErrNoBaseline = errors.New("cpu baseline not established yet")

// Sampler reads local host metrics.
type Sampler interface {
	SampleCPU(ctx context.Context) (metrics.CPU, error)
	SampleMemory(ctx context.Context) (metrics.Memory, error)
}

// cpuDelta turns successive cumulative readings into usage percentages.
type cpuDelta struct {
	mu     sync.Mutex
	prev   CPUTimes
	primed bool
}

func (d *cpuDelta) next(cur CPUTimes) (metrics.CPU, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.primed {
		d.prev = cur
		d.primed = true
		return metrics.CPU{}, ErrNoBaseline
	}
	cpu := cur.Since(d.prev)
	d.prev = cur
	return cpu, nil
}

// ParseKinds maps config names (cpu, mem) to metric kinds, dropping
// duplicates and keeping order.
func ParseKinds(names []string) ([]metrics.Kind, error) {
	var kinds []metrics.Kind
	seen := make(map[metrics.Kind]bool)
	for _, name := range names {
		var k metrics.Kind
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "cpu":
			k = metrics.KindCPU
		case "mem", "memory":
			k = metrics.KindMemory
		default:
			return nil, fmt.Errorf("unknown metric group %q", name)
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		return nil, errors.New("no metric groups selected")
	}
	return kinds, nil
}
