// Package render turns registry snapshots into something a person (or a
// pipe) can read: an aligned text table, JSON or YAML frames, or an
// interactive dashboard.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/hostwatch/internal/ingest"
	"github.com/rileyhilliard/hostwatch/internal/registry"
)

// Columns are the table headers in display order.
var Columns = []string{"HOST", "CPU", "USR", "SYS", "IDLE", "MEM USED", "MEM FREE"}

// Placeholder fills the cells of a metric group the host hasn't reported.
const Placeholder = "--"

const columnGap = "  "

// Cells returns the unstyled cell text for one record, one entry per column.
func Cells(r registry.HostRecord) []string {
	cells := make([]string, 0, len(Columns))
	cells = append(cells, r.ID)

	if r.HasCPU {
		cells = append(cells,
			formatValue(r.CPU.Usage),
			formatValue(r.CPU.User),
			formatValue(r.CPU.Sys),
			formatValue(r.CPU.Idle))
	} else {
		cells = append(cells, Placeholder, Placeholder, Placeholder, Placeholder)
	}

	if r.HasMem {
		cells = append(cells, formatValue(r.Mem.UsedMB), formatValue(r.Mem.FreeMB))
	} else {
		cells = append(cells, Placeholder, Placeholder)
	}

	return cells
}

// Rows returns Cells for every record, keeping the snapshot's order.
func Rows(records []registry.HostRecord) [][]string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = Cells(r)
	}
	return rows
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Table renders records as an aligned table with one row per host, in the
// order given. When stats is non-nil a summary line follows the table.
// Table only reads its arguments.
func Table(records []registry.HostRecord, stats *ingest.StatsSnapshot) string {
	rows := Rows(records)
	widths := columnWidths(rows)

	var b strings.Builder

	header := make([]string, len(Columns))
	for i, title := range Columns {
		header[i] = align(title, widths[i], i)
	}
	b.WriteString(HeaderStyle.Render(strings.Join(header, columnGap)))
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString(MutedStyle.Render("waiting for agents..."))
		b.WriteString("\n")
	}

	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = styleCell(records[i], j, cell).Render(align(cell, widths[j], j))
		}
		b.WriteString(strings.Join(cells, columnGap))
		b.WriteString("\n")
	}

	if stats != nil {
		b.WriteString("\n")
		b.WriteString(FooterStyle.Render(Footer(len(records), *stats)))
		b.WriteString("\n")
	}

	return b.String()
}

// Title is the line printed above the table on each refresh.
func Title(at time.Time, hosts int) string {
	plural := "s"
	if hosts == 1 {
		plural = ""
	}
	return TitleStyle.Render("hostwatch") +
		MutedStyle.Render(fmt.Sprintf(" | %d host%s | %s", hosts, plural, at.Format("15:04:05")))
}

// Footer summarizes ingestion counters.
func Footer(hosts int, s ingest.StatsSnapshot) string {
	parts := []string{
		fmt.Sprintf("%d hosts", hosts),
		fmt.Sprintf("%d connected (%d total)", s.SessionsOpen, s.SessionsTotal),
		fmt.Sprintf("%d lines ok", s.LinesAccepted),
		fmt.Sprintf("%d rejected", s.LinesRejected),
		fmt.Sprintf("%d/s", s.LinesPerSecond),
	}
	if s.FramingFailures > 0 {
		parts = append(parts, fmt.Sprintf("%d oversized", s.FramingFailures))
	}
	if s.CapacityRejects > 0 {
		parts = append(parts, fmt.Sprintf("%d over capacity", s.CapacityRejects))
	}
	return strings.Join(parts, " | ")
}

func columnWidths(rows [][]string) []int {
	widths := make([]int, len(Columns))
	for i, title := range Columns {
		widths[i] = lipgloss.Width(title)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

// align pads the host column on the right and numbers on the left.
func align(s string, width, column int) string {
	pad := width - lipgloss.Width(s)
	if pad <= 0 {
		return s
	}
	if column == 0 {
		return s + strings.Repeat(" ", pad)
	}
	return strings.Repeat(" ", pad) + s
}

func styleCell(r registry.HostRecord, column int, cell string) lipgloss.Style {
	switch {
	case column == 0:
		return HostStyle
	case cell == Placeholder:
		return MutedStyle
	case column == 1:
		return UsageStyle(r.CPU.Usage)
	default:
		return ValueStyle
	}
}
