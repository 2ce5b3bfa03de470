// ABOUTME: Tests for the pulse CLI wiring
// ABOUTME: Covers shutdown on load failure and flag-driven driver setup
package main

import (
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/Resonate-Protocol/pulse/pkg/audio/output"
	"github.com/Resonate-Protocol/pulse/pkg/clock"
)

func waitAsync(loaded <-chan error, quit <-chan struct{}, sig <-chan os.Signal) <-chan error {
	result := make(chan error, 1)
	go func() {
		result <- waitForExit(loaded, quit, sig)
	}()
	return result
}

func TestWaitForExitReturnsLoadError(t *testing.T) {
	loaded := make(chan error, 1)
	loadErr := &clock.LoadError{Source: "song.mp3", Err: errors.New("corrupt frame")}
	loaded <- loadErr

	select {
	case err := <-waitAsync(loaded, nil, nil):
		var le *clock.LoadError
		if !errors.As(err, &le) {
			t.Fatalf("expected LoadError, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("load failure did not end the wait")
	}
}

func TestWaitForExitKeepsRunningAfterLoad(t *testing.T) {
	loaded := make(chan error, 1)
	loaded <- nil
	sig := make(chan os.Signal, 1)

	result := waitAsync(loaded, nil, sig)

	select {
	case err := <-result:
		t.Fatalf("successful load should not end the wait, got %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	sig <- syscall.SIGTERM
	select {
	case err := <-result:
		if !errors.Is(err, errSignal) {
			t.Errorf("expected errSignal, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("signal did not end the wait")
	}
}

func TestWaitForExitQuit(t *testing.T) {
	quit := make(chan struct{}, 1)
	quit <- struct{}{}

	select {
	case err := <-waitAsync(nil, quit, nil):
		if !errors.Is(err, errQuit) {
			t.Errorf("expected errQuit, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("quit did not end the wait")
	}
}

func TestNewDriverVolumeFlag(t *testing.T) {
	saved := *volume
	t.Cleanup(func() { *volume = saved })

	tests := []struct {
		name    string
		volume  float64
		wantErr bool
	}{
		{"muted", 0, false},
		{"half", 0.5, false},
		{"full", 1, false},
		{"out of range", 1.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			*volume = tt.volume
			driver, err := newDriver(output.NewManual())
			if tt.wantErr {
				if !errors.Is(err, clock.ErrInvalidVolume) {
					t.Fatalf("expected ErrInvalidVolume, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("newDriver failed: %v", err)
			}
			defer driver.Close()

			if driver.Volume() != tt.volume {
				t.Errorf("expected volume %v, got %v", tt.volume, driver.Volume())
			}
		})
	}
}
