package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/hostwatch/internal/metrics"
)

const sampleProcStat = `cpu  100 0 50 850 12 0 3 0 0 0
cpu0 50 0 25 425 6 0 1 0 0 0
cpu1 50 0 25 425 6 0 2 0 0 0
intr 12345
ctxt 67890
btime 1700000000
`

const sampleMeminfo = `MemTotal:       16384000 kB
MemFree:         2048000 kB
MemAvailable:    8192000 kB
Buffers:          512000 kB
Cached:          4096000 kB
SwapCached:            0 kB
SwapTotal:       2097152 kB
SwapFree:        1048576 kB
`

func TestParseProcStat(t *testing.T) {
	times, err := ParseProcStat(sampleProcStat)
	require.NoError(t, err)
	assert.Equal(t, CPUTimes{User: 100, Nice: 0, System: 50, Idle: 850}, times)
}

func TestParseProcStat_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "only per-core lines", input: "cpu0 1 2 3 4\n"},
		{name: "too few fields", input: "cpu  1 2 3\n"},
		{name: "non numeric", input: "cpu  1 x 3 4\n"},
		{name: "negative", input: "cpu  1 -2 3 4\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProcStat(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestCPUTimes_Since(t *testing.T) {
	tests := []struct {
		name string
		prev CPUTimes
		cur  CPUTimes
		want metrics.CPU
	}{
		{
			name: "busy window",
			prev: CPUTimes{User: 100, Nice: 0, System: 50, Idle: 850},
			cur:  CPUTimes{User: 160, Nice: 0, System: 70, Idle: 970},
			want: metrics.CPU{Usage: 40, User: 30, Sys: 10, Idle: 60},
		},
		{
			name: "nice counts as busy",
			prev: CPUTimes{},
			cur:  CPUTimes{User: 25, Nice: 25, System: 0, Idle: 50},
			want: metrics.CPU{Usage: 50, User: 25, Sys: 0, Idle: 50},
		},
		{
			name: "fully idle",
			prev: CPUTimes{Idle: 100},
			cur:  CPUTimes{Idle: 200},
			want: metrics.CPU{Usage: 0, User: 0, Sys: 0, Idle: 100},
		},
		{
			name: "no time elapsed",
			prev: CPUTimes{User: 5, Idle: 5},
			cur:  CPUTimes{User: 5, Idle: 5},
			want: metrics.CPU{},
		},
		{
			name: "counter went backwards",
			prev: CPUTimes{User: 500, Idle: 100},
			cur:  CPUTimes{User: 10, Idle: 200},
			want: metrics.CPU{Usage: 0, User: 0, Sys: 0, Idle: 100},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cur.Since(tt.prev)
			assert.InDelta(t, tt.want.Usage, got.Usage, 1e-9)
			assert.InDelta(t, tt.want.User, got.User, 1e-9)
			assert.InDelta(t, tt.want.Sys, got.Sys, 1e-9)
			assert.InDelta(t, tt.want.Idle, got.Idle, 1e-9)
		})
	}
}

func TestParseMeminfo(t *testing.T) {
	mem, err := ParseMeminfo(sampleMeminfo)
	require.NoError(t, err)
	assert.Equal(t, metrics.Memory{
		UsedMB:      8000,
		FreeMB:      2000,
		SwapTotalMB: 2048,
		SwapFreeMB:  1024,
	}, mem)
}

func TestParseMeminfo_NoSwap(t *testing.T) {
	mem, err := ParseMeminfo("MemTotal: 2048 kB\nMemFree: 1024 kB\nMemAvailable: 1536 kB\n")
	require.NoError(t, err)
	assert.Equal(t, 0.5, mem.UsedMB)
	assert.Equal(t, 1.0, mem.FreeMB)
	assert.Zero(t, mem.SwapTotalMB)
	assert.Zero(t, mem.SwapFreeMB)
}

func TestParseMeminfo_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "missing MemAvailable", input: "MemTotal: 2048 kB\nMemFree: 1024 kB\n"},
		{name: "bad number", input: "MemTotal: lots kB\nMemFree: 1024 kB\nMemAvailable: 1 kB\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMeminfo(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestParseKinds(t *testing.T) {
	kinds, err := ParseKinds([]string{"MEM", " cpu ", "memory"})
	require.NoError(t, err)
	assert.Equal(t, []metrics.Kind{metrics.KindMemory, metrics.KindCPU}, kinds)

	_, err = ParseKinds([]string{"disk"})
	assert.ErrorContains(t, err, "disk")

	_, err = ParseKinds(nil)
	assert.Error(t, err)
}

func TestCPUDelta_FirstReadingPrimes(t *testing.T) {
	var d cpuDelta

	_, err := d.next(CPUTimes{User: 10, Idle: 90})
	assert.ErrorIs(t, err, ErrNoBaseline)

	cpu, err := d.next(CPUTimes{User: 20, Idle: 180})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, cpu.Usage, 1e-9)
}
