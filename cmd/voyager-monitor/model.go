package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/voyager/internal/store"
)

// stats mirrors the shape internal/trace.Stats reports, recomputed here
// from the persisted action log since voyager-monitor runs as a separate
// process from the runner whose in-memory trace it cannot share.
type stats struct {
	total, ok, failed, retries int
	perAction                  map[string]int
	p50Ms, p95Ms               float64
}

func computeStats(entries []store.ActionLogEntry) stats {
	s := stats{perAction: make(map[string]int)}
	durations := make([]float64, 0, len(entries))
	for _, e := range entries {
		s.total++
		if e.Failed {
			s.failed++
		} else {
			s.ok++
		}
		s.retries += e.Retries
		s.perAction[e.Action]++
		durations = append(durations, e.DurationMs)
	}
	sort.Float64s(durations)
	s.p50Ms = percentile(durations, 0.50)
	s.p95Ms = percentile(durations, 0.95)
	return s
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

type refreshMsg struct {
	sessions []store.Session
	recent   []store.ActionLogEntry
	err      error
}

func (m model) poll() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var sessions []store.Session
		for _, status := range []store.SessionStatus{store.SessionActive, store.SessionSuspended} {
			batch, err := m.sessions.ListByStatus(ctx, status)
			if err != nil {
				return refreshMsg{err: err}
			}
			sessions = append(sessions, batch...)
		}

		recent, err := m.actionLog.Recent(ctx, 500)
		if err != nil {
			return refreshMsg{err: err}
		}

		return refreshMsg{sessions: sessions, recent: recent}
	}
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg { return tickMsg{} })
}

type tickMsg struct{}

// model is the voyager-monitor dashboard: a session table, an aggregate
// stats panel, and a markdown preview pane for the selected session's most
// recent get_content capture.
type model struct {
	sessions  store.SessionStore
	actionLog store.ActionLog
	interval  time.Duration

	table    table.Model
	renderer *glamour.TermRenderer

	sessionsByID map[string]store.Session
	byStatusIdx  []string // row order, session IDs
	recent       []store.ActionLogEntry
	agg          stats

	width, height int
	lastErr       error
	lastRefresh   time.Time
}

func newModel(sessions store.SessionStore, actionLog store.ActionLog, interval time.Duration) model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Session", Width: 36},
			{Title: "Profile", Width: 14},
			{Title: "Status", Width: 10},
			{Title: "Updated", Width: 20},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	return model{
		sessions:     sessions,
		actionLog:    actionLog,
		interval:     interval,
		table:        t,
		renderer:     renderer,
		sessionsByID: make(map[string]store.Session),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.poll(), tick(m.interval))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetWidth(msg.Width - 4)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			return m, m.poll()
		}

	case tickMsg:
		return m, tea.Batch(m.poll(), tick(m.interval))

	case refreshMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		m.lastErr = nil
		m.lastRefresh = time.Now()
		m.applyRefresh(msg.sessions, msg.recent)
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *model) applyRefresh(sessions []store.Session, recent []store.ActionLogEntry) {
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt) })

	m.sessionsByID = make(map[string]store.Session, len(sessions))
	m.byStatusIdx = make([]string, 0, len(sessions))
	rows := make([]table.Row, 0, len(sessions))
	for _, s := range sessions {
		m.sessionsByID[s.ID] = s
		m.byStatusIdx = append(m.byStatusIdx, s.ID)
		rows = append(rows, table.Row{
			s.ID, s.Profile, string(s.Status), s.UpdatedAt.Format("15:04:05"),
		})
	}
	m.table.SetRows(rows)

	m.recent = recent
	m.agg = computeStats(recent)
}

func (m model) selectedSessionID() string {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.byStatusIdx) {
		return ""
	}
	return m.byStatusIdx[idx]
}

func (m model) latestContentFor(sessionID string) *store.ActionLogEntry {
	for i := range m.recent {
		e := m.recent[i]
		if e.SessionID == sessionID && e.Action == "get_content" && !e.Failed {
			return &m.recent[i]
		}
	}
	return nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("voyager-monitor") + "\n")
	if m.lastErr != nil {
		b.WriteString(statusBarStyle.Render(fmt.Sprintf("error refreshing: %v", m.lastErr)) + "\n\n")
	} else {
		status := fmt.Sprintf("sessions: %d | actions: %d (%s, %s, retries %d) | p50 %.0fms p95 %.0fms",
			len(m.sessionsByID), m.agg.total,
			okStyle.Render(fmt.Sprintf("ok %d", m.agg.ok)),
			failedStyle.Render(fmt.Sprintf("failed %d", m.agg.failed)),
			m.agg.retries, m.agg.p50Ms, m.agg.p95Ms)
		b.WriteString(statusBarStyle.Render(status) + "\n\n")
	}

	b.WriteString(panelTitleStyle.Render("Sessions") + "\n")
	b.WriteString(borderStyle.Render(m.table.View()) + "\n\n")

	b.WriteString(panelTitleStyle.Render("Per-action counts") + "\n")
	b.WriteString(m.renderActionCounts() + "\n\n")

	b.WriteString(panelTitleStyle.Render("Selected session preview") + "\n")
	b.WriteString(m.renderPreview() + "\n\n")

	b.WriteString(helpStyle.Render("r: refresh now   q: quit"))
	return b.String()
}

func (m model) renderActionCounts() string {
	if len(m.agg.perAction) == 0 {
		return helpStyle.Render("no actions recorded yet")
	}
	names := make([]string, 0, len(m.agg.perAction))
	for name := range m.agg.perAction {
		names = append(names, name)
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, m.agg.perAction[name]))
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(parts, "  "))
}

func (m model) renderPreview() string {
	sessID := m.selectedSessionID()
	if sessID == "" {
		return helpStyle.Render("no session selected")
	}

	entry := m.latestContentFor(sessID)
	if entry == nil {
		return helpStyle.Render(fmt.Sprintf("no get_content capture yet for %s", sessID))
	}

	md := fmt.Sprintf("# %s\n\n```\n%s\n```\n", sessID, string(entry.Result))
	if m.renderer == nil {
		return previewStyle.Render(md)
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return previewStyle.Render(md)
	}
	return out
}
