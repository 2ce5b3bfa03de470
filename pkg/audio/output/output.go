// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for pull-based playback backends
package output

import (
	"io"
	"sync"
)

// BytesPerSample is the size of one float32 sample on the wire
const BytesPerSample = 4

// Output represents an audio output device.
// The device pulls interleaved float32 little-endian samples from the source
// on its own goroutine.
type Output interface {
	// Open starts pulling audio from src
	Open(sampleRate, channels int, src io.Reader) error

	// Format returns the running format, or zeros before Open
	Format() (sampleRate, channels int)

	// Close releases output resources
	Close() error
}

// swapReader lets a running device switch sources without reopening.
// A nil source reads as silence.
type swapReader struct {
	mu  sync.Mutex
	src io.Reader
}

func (s *swapReader) set(src io.Reader) {
	s.mu.Lock()
	s.src = src
	s.mu.Unlock()
}

func (s *swapReader) Read(p []byte) (int, error) {
	s.mu.Lock()
	src := s.src
	s.mu.Unlock()

	if src == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	return src.Read(p)
}
