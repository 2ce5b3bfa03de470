// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key handling, and spectrum rendering
package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewModel(t *testing.T) {
	model := NewModel("demo", nil) // Controls are optional for testing

	if model.track != "demo" {
		t.Errorf("expected track 'demo', got '%s'", model.track)
	}
	if model.volume != 1 {
		t.Errorf("expected default volume 1, got %v", model.volume)
	}
	if !model.kickEnabled {
		t.Error("expected kick detector enabled initially")
	}
	if model.playing {
		t.Error("expected playing to be false initially")
	}
}

func TestApplyStatus(t *testing.T) {
	model := NewModel("demo", nil)

	model.applyStatus(StatusMsg{
		Position:    2 * time.Second,
		Duration:    10 * time.Second,
		Playing:     true,
		Loop:        true,
		Volume:      0.5,
		Spectrum:    []float64{1, 2, 3},
		Energy:      120,
		Threshold:   180,
		KickEnabled: false,
		FeedClients: 3,
	})

	if model.position != 2*time.Second || model.duration != 10*time.Second {
		t.Errorf("unexpected times %v / %v", model.position, model.duration)
	}
	if !model.playing || !model.loop {
		t.Error("expected playing and loop to be set")
	}
	if model.volume != 0.5 {
		t.Errorf("expected volume 0.5, got %v", model.volume)
	}
	if model.kickEnabled {
		t.Error("expected kick detector disabled")
	}
	if model.feedClients != 3 {
		t.Errorf("expected 3 feed clients, got %d", model.feedClients)
	}
	if len(model.spectrum) != 3 {
		t.Errorf("expected spectrum of 3 bins, got %d", len(model.spectrum))
	}
}

func TestKickFlashDecays(t *testing.T) {
	model := NewModel("demo", nil)

	model.applyStatus(StatusMsg{Kicked: true})
	if model.kicks != 1 {
		t.Errorf("expected 1 kick, got %d", model.kicks)
	}
	if model.flash != flashFrames {
		t.Errorf("expected flash %d, got %d", flashFrames, model.flash)
	}

	for i := 0; i < flashFrames; i++ {
		model.applyStatus(StatusMsg{})
	}
	if model.flash != 0 {
		t.Errorf("expected flash to decay to 0, got %d", model.flash)
	}
}

func TestCueLogIsCapped(t *testing.T) {
	model := NewModel("demo", nil)

	for i := 0; i < maxCueLog+3; i++ {
		model.applyStatus(StatusMsg{Fired: []string{"cue"}})
	}
	if len(model.cueLog) != maxCueLog {
		t.Errorf("expected %d cue log entries, got %d", maxCueLog, len(model.cueLog))
	}
}

func TestKeysSendCommands(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want Command
	}{
		{tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, Command{Kind: TogglePlay}},
		{tea.KeyMsg{Type: tea.KeyLeft}, Command{Kind: Seek, Amount: -5}},
		{tea.KeyMsg{Type: tea.KeyRight}, Command{Kind: Seek, Amount: 5}},
		{tea.KeyMsg{Type: tea.KeyUp}, Command{Kind: Volume, Amount: 0.05}},
		{tea.KeyMsg{Type: tea.KeyDown}, Command{Kind: Volume, Amount: -0.05}},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{']'}}, Command{Kind: Threshold, Amount: 5}},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}}, Command{Kind: Threshold, Amount: -5}},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}, Command{Kind: ToggleKick}},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}}, Command{Kind: ToggleLoop}},
	}

	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			controls := NewControls()
			model := NewModel("demo", controls)

			model.Update(tt.key)

			select {
			case got := <-controls.Commands:
				if got != tt.want {
					t.Errorf("expected %+v, got %+v", tt.want, got)
				}
			default:
				t.Fatal("expected a command")
			}
		})
	}
}

func TestQuitKey(t *testing.T) {
	controls := NewControls()
	model := NewModel("demo", controls)

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Error("expected quit command")
	}
	if !updated.(Model).quitting {
		t.Error("expected model to be quitting")
	}

	select {
	case <-controls.Quit:
	default:
		t.Error("expected quit signal")
	}
}

func TestCommandsDoNotBlock(t *testing.T) {
	controls := NewControls()
	model := NewModel("demo", controls)

	for i := 0; i < cap(controls.Commands)+4; i++ {
		model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	}
	if len(controls.Commands) != cap(controls.Commands) {
		t.Errorf("expected full queue, got %d", len(controls.Commands))
	}
}

func TestRenderSpectrum(t *testing.T) {
	spectrum := make([]float64, 64)
	for i := 0; i < 32; i++ {
		spectrum[i] = 255
	}

	out := renderSpectrum(spectrum, 16, 4)
	rows := strings.Split(out, "\n")
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	for i, row := range rows {
		if got := []rune(row); len(got) != 16 {
			t.Fatalf("row %d: expected 16 columns, got %d", i, len(got))
		}
		if !strings.HasPrefix(row, strings.Repeat("█", 8)) {
			t.Errorf("row %d: expected full low half, got %q", i, row)
		}
		if !strings.HasSuffix(row, strings.Repeat(" ", 8)) {
			t.Errorf("row %d: expected empty high half, got %q", i, row)
		}
	}
}

func TestRenderSpectrumEmpty(t *testing.T) {
	out := renderSpectrum(nil, 8, 2)
	if strings.Contains(out, "█") {
		t.Errorf("expected no bars for empty spectrum, got %q", out)
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00.0"},
		{1500 * time.Millisecond, "0:01.5"},
		{75 * time.Second, "1:15.0"},
		{-time.Second, "0:00.0"},
	}

	for _, tt := range tests {
		if got := formatTime(tt.d); got != tt.want {
			t.Errorf("formatTime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestViewShowsKick(t *testing.T) {
	model := NewModel("demo", nil)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model = updated.(Model)
	model.applyStatus(StatusMsg{Kicked: true, KickEnabled: true})

	view := model.View()
	if !strings.Contains(view, "KICK") {
		t.Error("expected kick indicator in view")
	}
	if !strings.Contains(view, "demo") {
		t.Error("expected track name in view")
	}
}
