// ABOUTME: Wall-clock paced output without an audio device
// ABOUTME: Drains the source in real time so headless runs advance like a sound card
package output

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

// Null consumes audio at the real-time rate and discards it
type Null struct {
	mu         sync.Mutex
	src        swapReader
	sampleRate int
	channels   int
	period     time.Duration
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewNull creates a paced null output that pulls every period (zero uses 10ms)
func NewNull(period time.Duration) *Null {
	if period <= 0 {
		period = 10 * time.Millisecond
	}
	return &Null{period: period}
}

// Open starts the pacing loop
func (n *Null) Open(sampleRate, channels int, src io.Reader) error {
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("invalid output format: %dHz %dch", sampleRate, channels)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.src.set(src)
	if n.cancel != nil {
		return nil
	}

	n.sampleRate = sampleRate
	n.channels = channels

	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	n.wg.Add(1)
	go n.run(ctx)

	log.Printf("Null output initialized: %dHz, %d channels (paced every %v)", sampleRate, channels, n.period)
	return nil
}

// run pulls the number of frames that elapsed since the previous pull
func (n *Null) run(ctx context.Context) {
	defer n.wg.Done()

	ticker := time.NewTicker(n.period)
	defer ticker.Stop()

	last := time.Now()
	var carry float64
	buf := make([]byte, 0)

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			exact := now.Sub(last).Seconds()*float64(n.sampleRate) + carry
			frames := int(exact)
			carry = exact - float64(frames)
			last = now

			size := frames * n.channels * BytesPerSample
			if cap(buf) < size {
				buf = make([]byte, size)
			}
			if _, err := io.ReadFull(&n.src, buf[:size]); err != nil {
				log.Printf("Null output read error: %v", err)
			}
		}
	}
}

// Format returns the running format
func (n *Null) Format() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sampleRate, n.channels
}

// Close stops the pacing loop
func (n *Null) Close() error {
	n.mu.Lock()
	cancel := n.cancel
	n.cancel = nil
	n.mu.Unlock()

	if cancel != nil {
		cancel()
		n.wg.Wait()
	}
	return nil
}
