// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and relays key commands to the frame loop
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// CommandKind identifies a control action
type CommandKind int

const (
	TogglePlay CommandKind = iota
	Seek                   // Amount in seconds, relative
	Volume                 // Amount in [0, 1] units, relative
	Threshold              // Amount on the 0-255 scale, relative
	ToggleKick
	ToggleLoop
)

// Command is a key press translated for the frame loop
type Command struct {
	Kind   CommandKind
	Amount float64
}

// Controls holds channels for communication with the frame loop
type Controls struct {
	Commands chan Command
	Quit     chan struct{}
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		Commands: make(chan Command, 16),
		Quit:     make(chan struct{}, 1),
	}
}

func (c *Controls) send(cmd Command) {
	if c == nil {
		return
	}
	select {
	case c.Commands <- cmd:
	default:
		// Don't block the UI if the frame loop is behind
	}
}

func (c *Controls) quit() {
	if c == nil {
		return
	}
	select {
	case c.Quit <- struct{}{}:
	default:
	}
}

// NewModel creates a new TUI model
func NewModel(track string, controls *Controls) Model {
	return Model{
		track:       track,
		volume:      1,
		kickEnabled: true,
		controls:    controls,
	}
}

// TUI runs the visualizer
type TUI struct {
	program *tea.Program
	updates chan StatusMsg
}

// NewTUI creates a TUI for the given track
func NewTUI(track string, controls *Controls) *TUI {
	return &TUI{
		program: tea.NewProgram(NewModel(track, controls), tea.WithAltScreen()),
		updates: make(chan StatusMsg, 4),
	}
}

// Run blocks until the user quits
func (t *TUI) Run() error {
	go func() {
		for status := range t.updates {
			t.program.Send(status)
		}
	}()

	_, err := t.program.Run()
	return err
}

// Update sends a frame to the TUI without blocking
func (t *TUI) Update(status StatusMsg) {
	select {
	case t.updates <- status:
	default:
		// Drop frames when the terminal can't keep up
	}
}

// Stop quits the program and waits for the terminal to be restored
func (t *TUI) Stop() {
	t.program.Quit()
	t.program.Wait()
}
