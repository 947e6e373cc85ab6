package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Key bindings for the dashboard.
const (
	KeyQuit    = "q"
	KeyQuitAlt = "ctrl+c"
	KeyRefresh = "r"
)

// lines outside the table body
const chrome = 4

var dashboardColumnWidths = []int{20, 7, 7, 7, 7, 10, 10}

// refreshMsg asks the dashboard to take a new snapshot.
type refreshMsg time.Time

// Dashboard is an interactive Bubble Tea view of the registry. It reads the
// same snapshots as Renderer.
type Dashboard struct {
	source   Source
	stats    StatsSource
	interval time.Duration
	now      func() time.Time

	table      table.Model
	hosts      int
	footer     string
	lastUpdate time.Time
	width      int
	height     int
	quitting   bool
}

// NewDashboard creates a dashboard refreshing every interval.
func NewDashboard(source Source, stats StatsSource, interval time.Duration) Dashboard {
	if interval <= 0 {
		interval = DefaultInterval
	}

	cols := make([]table.Column, len(Columns))
	for i, title := range Columns {
		cols[i] = table.Column{Title: title, Width: dashboardColumnWidths[i]}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.
		Foreground(ColorPrimary)
	s.Selected = s.Selected.
		Foreground(ColorPrimary).
		Background(ColorMuted).
		Bold(false)
	t.SetStyles(s)

	return Dashboard{
		source:   source,
		stats:    stats,
		interval: interval,
		now:      time.Now,
		table:    t,
	}
}

// Init takes the first snapshot and starts the refresh timer.
func (d Dashboard) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return refreshMsg(d.now()) },
		d.tickCmd(),
	)
}

// Update handles keys, resizes and refresh ticks.
func (d Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case KeyQuit, KeyQuitAlt:
			d.quitting = true
			return d, tea.Quit
		case KeyRefresh:
			d.refresh(d.now())
			return d, nil
		}

	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		if h := msg.Height - chrome; h > 1 {
			d.table.SetHeight(h)
		}
		d.table.SetWidth(msg.Width)
		return d, nil

	case refreshMsg:
		d.refresh(time.Time(msg))
		return d, d.tickCmd()
	}

	var cmd tea.Cmd
	d.table, cmd = d.table.Update(msg)
	return d, cmd
}

// View renders the dashboard.
func (d Dashboard) View() string {
	if d.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(Title(d.lastUpdate, d.hosts))
	b.WriteString("\n\n")
	b.WriteString(d.table.View())
	b.WriteString("\n")
	if d.footer != "" {
		b.WriteString(FooterStyle.Render(d.footer))
		b.WriteString("\n")
	}
	b.WriteString(FooterStyle.Render("q quit | r refresh | ↑↓ select"))
	return b.String()
}

// SelectedHost returns the id under the cursor, or "" when the table is empty.
func (d Dashboard) SelectedHost() string {
	row := d.table.SelectedRow()
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

func (d *Dashboard) refresh(at time.Time) {
	records := d.source.Snapshot()
	rows := make([]table.Row, len(records))
	for i, r := range records {
		rows[i] = table.Row(Cells(r))
	}
	d.table.SetRows(rows)
	d.hosts = len(records)
	d.lastUpdate = at
	if d.stats != nil {
		d.footer = Footer(len(records), d.stats.Snapshot())
	}
}

func (d Dashboard) tickCmd() tea.Cmd {
	return tea.Tick(d.interval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// RunDashboard runs d full screen until the user quits or ctx is cancelled.
func RunDashboard(ctx context.Context, d Dashboard, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(d, opts...)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
