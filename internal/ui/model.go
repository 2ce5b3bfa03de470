// ABOUTME: Bubbletea model for the pulse visualizer TUI
// ABOUTME: Renders spectrum bars, kick flashes and cues; maps keys to commands
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Resonate-Protocol/pulse/internal/version"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	maxCueLog   = 5
	flashFrames = 6
	barRows     = 8
	maxValue    = 255.0
)

// Model represents the TUI state
type Model struct {
	// Track
	track    string
	position time.Duration
	duration time.Duration
	playing  bool
	loop     bool
	volume   float64

	// Analysis
	spectrum    []float64
	energy      float64
	threshold   float64
	kickEnabled bool
	kicks       int
	flash       int
	cueLog      []string

	// Network
	feedClients int

	controls *Controls
	quitting bool

	// Dimensions
	width  int
	height int
}

// StatusMsg carries one frame of driver state
type StatusMsg struct {
	Position    time.Duration
	Duration    time.Duration
	Playing     bool
	Loop        bool
	Volume      float64
	Spectrum    []float64
	Energy      float64
	Threshold   float64
	KickEnabled bool
	Kicked      bool
	Fired       []string
	FeedClients int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// handleKey maps keys to driver commands
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.controls.quit()
		return m, tea.Quit
	case " ":
		m.controls.send(Command{Kind: TogglePlay})
	case "left":
		m.controls.send(Command{Kind: Seek, Amount: -5})
	case "right":
		m.controls.send(Command{Kind: Seek, Amount: 5})
	case "up":
		m.controls.send(Command{Kind: Volume, Amount: 0.05})
	case "down":
		m.controls.send(Command{Kind: Volume, Amount: -0.05})
	case "]":
		m.controls.send(Command{Kind: Threshold, Amount: 5})
	case "[":
		m.controls.send(Command{Kind: Threshold, Amount: -5})
	case "k":
		m.controls.send(Command{Kind: ToggleKick})
	case "l":
		m.controls.send(Command{Kind: ToggleLoop})
	}

	return m, nil
}

// applyStatus updates model from a frame
func (m *Model) applyStatus(msg StatusMsg) {
	m.position = msg.Position
	m.duration = msg.Duration
	m.playing = msg.Playing
	m.loop = msg.Loop
	m.volume = msg.Volume
	m.spectrum = msg.Spectrum
	m.energy = msg.Energy
	m.threshold = msg.Threshold
	m.kickEnabled = msg.KickEnabled
	m.feedClients = msg.FeedClients

	if msg.Kicked {
		m.kicks++
		m.flash = flashFrames
	} else if m.flash > 0 {
		m.flash--
	}

	for _, name := range msg.Fired {
		m.cueLog = append(m.cueLog, fmt.Sprintf("%s  %s", formatTime(msg.Position), name))
	}
	if len(m.cueLog) > maxCueLog {
		m.cueLog = m.cueLog[len(m.cueLog)-maxCueLog:]
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	kickStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("220"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping...\n"
	}
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(version.String()))
	b.WriteString("  ")
	b.WriteString(valueStyle.Render(m.track))
	b.WriteString("\n\n")

	b.WriteString(m.renderTransport())
	b.WriteString("\n\n")

	b.WriteString(barStyle.Render(renderSpectrum(m.spectrum, m.barWidth(), barRows)))
	b.WriteString("\n\n")

	b.WriteString(m.renderKick())
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Cues"))
	b.WriteString("\n")
	if len(m.cueLog) == 0 {
		b.WriteString(valueStyle.Render("  none fired"))
		b.WriteString("\n")
	}
	for _, line := range m.cueLog {
		b.WriteString(valueStyle.Render("  " + line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(faintStyle.Render("space:Play/Pause  ←/→:Seek  ↑/↓:Volume  [/]:Threshold  k:Kick  l:Loop  q:Quit"))

	return b.String()
}

func (m Model) barWidth() int {
	w := m.width - 2
	if w < 16 {
		w = 16
	}
	if w > 128 {
		w = 128
	}
	return w
}

func (m Model) renderTransport() string {
	state := "paused"
	if m.playing {
		state = "playing"
	}
	loop := ""
	if m.loop {
		loop = "  loop"
	}

	return headerStyle.Render("Time: ") +
		valueStyle.Render(fmt.Sprintf("%s / %s  %s%s", formatTime(m.position), formatTime(m.duration), state, loop)) +
		"\n" +
		headerStyle.Render("Volume: ") +
		valueStyle.Render(fmt.Sprintf("[%s] %d%%", renderBar(m.volume, 1, 10), int(m.volume*100+0.5))) +
		headerStyle.Render("  Feed: ") +
		valueStyle.Render(fmt.Sprintf("%d clients", m.feedClients))
}

func (m Model) renderKick() string {
	indicator := "      "
	if m.flash > 0 {
		indicator = kickStyle.Render(" KICK ")
	}

	status := "on"
	if !m.kickEnabled {
		status = "off"
	}

	return headerStyle.Render("Kick: ") + indicator +
		valueStyle.Render(fmt.Sprintf("  energy %3.0f [%s] threshold %3.0f  %s  total %d",
			m.energy, renderBar(m.energy, maxValue, 20), m.threshold, status, m.kicks))
}

// renderSpectrum draws the frame as vertical bars, averaging bins per column
func renderSpectrum(spectrum []float64, width, rows int) string {
	if width <= 0 || rows <= 0 {
		return ""
	}

	columns := make([]float64, width)
	if len(spectrum) > 0 {
		for c := range columns {
			start := c * len(spectrum) / width
			end := (c + 1) * len(spectrum) / width
			if end <= start {
				end = start + 1
			}
			if end > len(spectrum) {
				end = len(spectrum)
			}
			sum := 0.0
			for _, v := range spectrum[start:end] {
				sum += v
			}
			columns[c] = sum / float64(end-start)
		}
	}

	var b strings.Builder
	for r := rows; r > 0; r-- {
		level := maxValue * float64(r-1) / float64(rows)
		for _, v := range columns {
			if v > level {
				b.WriteString("█")
			} else {
				b.WriteString(" ")
			}
		}
		if r > 1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Utility functions
func renderBar(value, max float64, width int) string {
	filled := 0
	if max > 0 {
		filled = int(value / max * float64(width))
	}
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func formatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d.%d", total/60, total%60, int(d%time.Second/(100*time.Millisecond)))
}
