package agent

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/rileyhilliard/hostwatch/internal/metrics"
)

// CPUTimes are cumulative CPU counters. Units don't matter as long as both
// samples of a delta use the same ones (jiffies from /proc, seconds from
// gopsutil).
type CPUTimes struct {
	User   float64
	Nice   float64
	System float64
	Idle   float64
}

// ParseProcStat reads the aggregate "cpu" line of /proc/stat.
func ParseProcStat(procStat string) (CPUTimes, error) {
	scanner := bufio.NewScanner(strings.NewReader(procStat))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}

		// Fields: cpu user nice system idle iowait irq softirq steal guest guest_nice
		fields := strings.Fields(line)
		if len(fields) < 5 {
			return CPUTimes{}, fmt.Errorf("invalid /proc/stat cpu line: %s", line)
		}

		var vals [4]float64
		for i := range vals {
			v, err := strconv.ParseUint(fields[i+1], 10, 64)
			if err != nil {
				return CPUTimes{}, fmt.Errorf("failed to parse cpu field %d: %w", i+1, err)
			}
			vals[i] = float64(v)
		}
		return CPUTimes{User: vals[0], Nice: vals[1], System: vals[2], Idle: vals[3]}, nil
	}

	if err := scanner.Err(); err != nil {
		return CPUTimes{}, fmt.Errorf("error scanning /proc/stat: %w", err)
	}
	return CPUTimes{}, fmt.Errorf("no aggregate cpu line in /proc/stat")
}

// Since converts the counters accumulated between prev and t into
// percentages. Nice time counts as busy but is not broken out. A window with
// no elapsed time reports zero everywhere.
func (t CPUTimes) Since(prev CPUTimes) metrics.CPU {
	user := delta(t.User, prev.User)
	nice := delta(t.Nice, prev.Nice)
	sys := delta(t.System, prev.System)
	idle := delta(t.Idle, prev.Idle)

	total := user + nice + sys + idle
	if total == 0 {
		return metrics.CPU{}
	}

	return metrics.CPU{
		Usage: 100 * (total - idle) / total,
		User:  100 * user / total,
		Sys:   100 * sys / total,
		Idle:  100 * idle / total,
	}
}

// delta treats a counter that went backwards (reset or hotplug) as no change.
func delta(cur, prev float64) float64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}

// ParseMeminfo reads /proc/meminfo. Used memory is MemTotal minus
// MemAvailable; swap fields default to zero when absent.
func ParseMeminfo(procMeminfo string) (metrics.Memory, error) {
	scanner := bufio.NewScanner(strings.NewReader(procMeminfo))

	values := make(map[string]float64, 5)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}

		key := strings.TrimSuffix(parts[0], ":")
		switch key {
		case "MemTotal", "MemFree", "MemAvailable", "SwapTotal", "SwapFree":
		default:
			continue
		}

		// Values in /proc/meminfo are in kB
		kb, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return metrics.Memory{}, fmt.Errorf("failed to parse %s: %w", key, err)
		}
		values[key] = float64(kb) / 1024
	}

	if err := scanner.Err(); err != nil {
		return metrics.Memory{}, fmt.Errorf("error scanning /proc/meminfo: %w", err)
	}

	for _, required := range []string{"MemTotal", "MemFree", "MemAvailable"} {
		if _, ok := values[required]; !ok {
			return metrics.Memory{}, fmt.Errorf("%s missing from /proc/meminfo", required)
		}
	}

	return metrics.Memory{
		UsedMB:      values["MemTotal"] - values["MemAvailable"],
		FreeMB:      values["MemFree"],
		SwapTotalMB: values["SwapTotal"],
		SwapFreeMB:  values["SwapFree"],
	}, nil
}
