package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"squeeze/internal/runner"
)

// maxActive bounds how many in-flight files are listed.
const maxActive = 6

type Model struct {
	updates    <-chan runner.Update
	started    time.Time
	width      int
	total      int
	processed  int
	optimized  int
	skipped    int
	errors     int
	bytesSaved int64
	active     map[string]int
	cancel     func()
	quitting   bool
}

type doneMsg struct{}

type updateMsg runner.Update

// NewModel renders updates until the channel closes. cancel is called when
// the user interrupts; the terminal is in raw mode, so ctrl+c never arrives
// as a signal.
func NewModel(updates <-chan runner.Update, cancel func()) Model {
	return Model{updates: updates, started: time.Now(), active: make(map[string]int), cancel: cancel}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m = m.apply(runner.Update(msg))
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.cancel != nil {
				m.cancel()
			}
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) apply(u runner.Update) Model {
	m.total += u.TotalDelta
	m.processed += u.ProcessedDelta
	m.optimized += u.OptimizedDelta
	m.skipped += u.SkippedDelta
	m.errors += u.ErrorDelta
	m.bytesSaved += u.BytesSavedDelta

	if u.File == "" {
		return m
	}
	switch {
	case u.ProcessedDelta > 0:
		delete(m.active, u.File)
	case u.TotalDelta > 0:
		m.active[u.File] = 0
	case u.Percent > m.active[u.File]:
		m.active[u.File] = u.Percent
	}
	return m
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.processed) / float64(m.total)
		if ratio > 1 {
			ratio = 1
		}
	}

	elapsed := time.Since(m.started).Round(time.Millisecond)
	saved := "0 B"
	if m.bytesSaved > 0 {
		saved = humanize.Bytes(uint64(m.bytesSaved))
	}

	lines := []string{
		titleStyle.Render("squeeze"),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.processed, m.total)) +
			dimStyle.Render(fmt.Sprintf("  optimized:%d skipped:%d", m.optimized, m.skipped)) +
			errorCountStyle(m.errors).Render(fmt.Sprintf(" errors:%d", m.errors)),
		labelStyle.Render("Saved: ") + savedStyle.Render(saved),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		barStyle.Render(renderBar(barWidth, ratio)),
	}

	names := make([]string, 0, len(m.active))
	for name := range m.active {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if i == maxActive {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("  … %d more", len(names)-maxActive)))
			break
		}
		pct := m.active[name]
		lines = append(lines, fmt.Sprintf("  %s %s %s",
			fileBarStyle.Render(renderBar(10, float64(pct)/100)),
			dimStyle.Render(fmt.Sprintf("%3d%%", pct)),
			labelStyle.Render(name),
		))
	}

	return strings.Join(lines, "\n")
}

func listenForUpdates(updates <-chan runner.Update) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}
