// Package tui is a terminal live view over the monitor's channel estimates,
// for running the estimator without a browser handy.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/venkat-chanest/ofdm-chanest/internal/telemetry"
)

// ReportMsg carries one freshly observed channel report into the model.
type ReportMsg struct {
	Report telemetry.ChannelReport
	At     time.Time
}

// StatusMsg carries a monitor lifecycle event (packet detected, realign
// failure, and so on).
type StatusMsg struct {
	Level   string
	Message string
}

// Model is the Bubbletea model driving the live dashboard.
type Model struct {
	ReportChan chan tea.Msg

	ReportCount int
	LastReport  telemetry.ChannelReport
	LastAt      time.Time
	History     []StatusMsg

	Width, Height int
	Quitting      bool
}

// NewModel returns a Model fed by the given message channel; the caller
// pushes ReportMsg/StatusMsg values onto it from the monitor's callbacks.
func NewModel(reportChan chan tea.Msg) Model {
	return Model{ReportChan: reportChan}
}

func (m Model) Init() tea.Cmd {
	return waitForMessage(m.ReportChan)
}

func waitForMessage(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case ReportMsg:
		m.ReportCount++
		m.LastReport = msg.Report
		m.LastAt = msg.At
		return m, waitForMessage(m.ReportChan)

	case StatusMsg:
		m.History = append(m.History, msg)
		if len(m.History) > 8 {
			m.History = m.History[len(m.History)-8:]
		}
		return m, waitForMessage(m.ReportChan)
	}

	return m, nil
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	if m.Width == 0 {
		return "starting monitor...\n"
	}
	var b strings.Builder
	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")
	b.WriteString(renderReport(m))
	b.WriteString("\n\n")
	b.WriteString(renderHistory(m))
	return b.String()
}

func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#4EA8DE")).
		Render("OFDM Channel Estimator")

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true).
		Render(fmt.Sprintf("%d reports observed", m.ReportCount))

	return title + "\n" + subtitle
}

func renderReport(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#4EA8DE")).
		Padding(0, 1).
		Width(60)

	if m.ReportCount == 0 {
		return box.Render("waiting for first packet...")
	}

	present := 0
	var mag float64
	for _, s := range m.LastReport.Subcarriers {
		if !s.Present {
			continue
		}
		present++
		mag += float64(s.Real)*float64(s.Real) + float64(s.Imag)*float64(s.Imag)
	}
	avgMag := 0.0
	if present > 0 {
		avgMag = mag / float64(present)
	}

	content := fmt.Sprintf(
		"CFO: %.5f rad/samp\nActive subcarriers: %d/%d\nMean |eq|^2: %.4f\nLast seen: %s",
		m.LastReport.CFO, present, len(m.LastReport.Subcarriers), avgMag,
		m.LastAt.Format("15:04:05"),
	)
	return box.Render(content)
}

func renderHistory(m Model) string {
	var b strings.Builder
	for _, s := range m.History {
		icon := "•"
		color := "#888888"
		switch s.Level {
		case "warn":
			icon, color = "!", "#FFA500"
		case "error":
			icon, color = "✗", "#A40000"
		}
		line := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(fmt.Sprintf("%s %s", icon, s.Message))
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
