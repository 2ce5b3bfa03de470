// ABOUTME: Oto-based audio output implementation
// ABOUTME: Plays float32 PCM pulled from the playback clock using the oto library
package output

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Oto output implementation using oto library
type Oto struct {
	mu         sync.Mutex
	otoCtx     *oto.Context
	player     *oto.Player
	src        swapReader
	sampleRate int
	channels   int
	bufferSize time.Duration
	ready      bool
}

// NewOto creates a new Oto output.
// bufferSize bounds device latency; zero uses 40ms.
func NewOto(bufferSize time.Duration) *Oto {
	if bufferSize <= 0 {
		bufferSize = 40 * time.Millisecond
	}
	return &Oto{
		bufferSize: bufferSize,
	}
}

// Open initializes the output device and starts pulling from src
func (o *Oto) Open(sampleRate, channels int, src io.Reader) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	// oto only allows one context per process, so an open device keeps its
	// format and just switches source
	if o.otoCtx != nil {
		if o.sampleRate != sampleRate || o.channels != channels {
			log.Printf("Warning: format change requested (%dHz %dch -> %dHz %dch) but oto doesn't support reinitialization. Continuing with existing context.",
				o.sampleRate, o.channels, sampleRate, channels)
		}
		o.src.set(src)
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   o.bufferSize,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels
	o.src.set(src)

	// Persistent player pulling from the swappable source
	o.player = o.otoCtx.NewPlayer(&o.src)
	o.player.Play()
	o.ready = true

	log.Printf("Audio output initialized: %dHz, %d channels (oto, buffer %v)", sampleRate, channels, o.bufferSize)

	return nil
}

// Format returns the device format
func (o *Oto) Format() (int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sampleRate, o.channels
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.Printf("Warning: oto player close error: %v", err)
		}
		o.player = nil
	}
	o.src.set(nil)
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			log.Printf("Warning: oto suspend error: %v", err)
		}
		o.ready = false
	}
	return nil
}
