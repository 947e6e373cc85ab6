package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/hostwatch/internal/ingest"
	"github.com/rileyhilliard/hostwatch/internal/registry"
)

func TestCells(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		name   string
		record registry.HostRecord
		want   []string
	}{
		{
			name:   "both groups",
			record: records[0],
			want:   []string{"web-1", "42.5", "30.0", "12.5", "57.5", "1024.5", "3.0"},
		},
		{
			name:   "memory only",
			record: records[1],
			want:   []string{"db", "--", "--", "--", "--", "512.0", "256.3"},
		},
		{
			name:   "cpu only",
			record: records[2],
			want:   []string{"cache", "95.0", "90.0", "5.0", "5.0", "--", "--"},
		},
		{
			name:   "neither group",
			record: registry.HostRecord{ID: "new"},
			want:   []string{"new", "--", "--", "--", "--", "--", "--"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cells(tt.record)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(Columns))
		})
	}
}

func TestTable_HeaderAndOrder(t *testing.T) {
	out := Table(sampleRecords(), nil)

	for _, col := range Columns {
		assert.Contains(t, out, col)
	}

	web := strings.Index(out, "web-1")
	db := strings.Index(out, "db ")
	cache := strings.Index(out, "cache")
	require.True(t, web > 0 && db > 0 && cache > 0)
	assert.Less(t, web, db, "rows follow snapshot order")
	assert.Less(t, db, cache)

	assert.Contains(t, out, "1024.5")
	assert.NotContains(t, out, "hosts |", "no footer without stats")
}

func TestTable_ColumnsAreAligned(t *testing.T) {
	out := strings.TrimRight(Table(sampleRecords(), nil), "\n")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5, "header, border and three rows")

	width := lipgloss.Width(lines[0])
	for i, line := range lines {
		assert.Equal(t, width, lipgloss.Width(line), "line %d: %q", i, line)
	}
}

func TestTable_PlaceholdersForMissingGroups(t *testing.T) {
	out := Table([]registry.HostRecord{{ID: "quiet"}}, nil)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	row := lines[len(lines)-1]

	assert.True(t, strings.HasPrefix(row, "quiet"))
	assert.Equal(t, 6, strings.Count(row, Placeholder))
}

func TestTable_Empty(t *testing.T) {
	out := Table(nil, nil)
	assert.Contains(t, out, "HOST")
	assert.Contains(t, out, "waiting for agents")
}

func TestTable_DoesNotModifyInput(t *testing.T) {
	records := sampleRecords()
	before := sampleRecords()
	_ = Table(records, &ingest.StatsSnapshot{})
	assert.Equal(t, before, records)
	assert.Equal(t, Table(records, nil), Table(records, nil))
}

func TestTable_Footer(t *testing.T) {
	stats := &ingest.StatsSnapshot{
		SessionsOpen:    2,
		SessionsTotal:   7,
		LinesAccepted:   120,
		LinesRejected:   3,
		LinesPerSecond:  4,
		FramingFailures: 1,
	}
	out := Table(sampleRecords(), stats)

	assert.Contains(t, out, "3 hosts")
	assert.Contains(t, out, "2 connected (7 total)")
	assert.Contains(t, out, "120 lines ok")
	assert.Contains(t, out, "3 rejected")
	assert.Contains(t, out, "4/s")
	assert.Contains(t, out, "1 oversized")
	assert.NotContains(t, out, "over capacity")
}

func TestTitle(t *testing.T) {
	assert.Contains(t, Title(fixedTime, 1), "1 host |")
	assert.Contains(t, Title(fixedTime, 3), "3 hosts")
	assert.Contains(t, Title(fixedTime, 3), "12:30:45")
}

func TestUsageColor(t *testing.T) {
	assert.Equal(t, ColorHealthy, UsageColor(10))
	assert.Equal(t, ColorWarning, UsageColor(70))
	assert.Equal(t, ColorWarning, UsageColor(89.9))
	assert.Equal(t, ColorCritical, UsageColor(90))
}
