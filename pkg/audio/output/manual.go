// ABOUTME: Manually stepped output for offline rendering and tests
// ABOUTME: Pulls exactly the requested amount of audio when Advance is called
package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Manual pulls audio only when told to, making playback time deterministic
type Manual struct {
	mu         sync.Mutex
	src        swapReader
	sampleRate int
	channels   int
	pulled     int64 // frames
	buf        []byte
	lastSize   int
	opened     bool
}

// NewManual creates a manual output
func NewManual() *Manual {
	return &Manual{}
}

// Open records the format and source
func (m *Manual) Open(sampleRate, channels int, src io.Reader) error {
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("invalid output format: %dHz %dch", sampleRate, channels)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.opened {
		m.sampleRate = sampleRate
		m.channels = channels
		m.opened = true
	}
	m.src.set(src)
	return nil
}

// Advance pulls d worth of audio from the source
func (m *Manual) Advance(d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.opened {
		return fmt.Errorf("output not initialized")
	}

	frames := int(int64(d) * int64(m.sampleRate) / int64(time.Second))
	size := frames * m.channels * BytesPerSample
	if cap(m.buf) < size {
		m.buf = make([]byte, size)
	}

	if _, err := io.ReadFull(&m.src, m.buf[:size]); err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}
	m.lastSize = size
	m.pulled += int64(frames)
	return nil
}

// Last returns the bytes pulled by the most recent Advance
func (m *Manual) Last() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]byte, m.lastSize)
	copy(out, m.buf[:m.lastSize])
	return out
}

// Pulled returns the total number of frames pulled
func (m *Manual) Pulled() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pulled
}

// Format returns the opened format
func (m *Manual) Format() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sampleRate, m.channels
}

// Close is a no-op
func (m *Manual) Close() error {
	return nil
}
