// ABOUTME: Playback clock owning the decoded clip and the playback position
// ABOUTME: Feeds the output device and records seeks and loop wraps as jumps
package clock

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/Resonate-Protocol/pulse/pkg/audio"
	"github.com/Resonate-Protocol/pulse/pkg/audio/output"
	"github.com/Resonate-Protocol/pulse/pkg/audio/resample"
)

const (
	// MaxRate is the fastest supported playback rate
	MaxRate = 4.0

	// maxJumps bounds the jump log when nobody drains it. Older jumps are
	// coalesced, so progress between them is not replayed to the cue scheduler.
	maxJumps = 64
)

var (
	ErrAlreadyLoaded = errors.New("clock already has a source")
	ErrLoading       = errors.New("load already in progress")
	ErrEmptySource   = errors.New("source has no audio")
	ErrInvalidVolume = errors.New("volume must be within [0, 1]")
	ErrInvalidRate   = errors.New("rate must be within (0, 4]")
)

// LoadError reports a failed load attempt. It is terminal for that attempt.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Jump is a discontinuity in playback position (seek or loop wrap)
type Jump struct {
	From time.Duration
	To   time.Duration
	Wrap bool
}

// State is a snapshot of playback state
type State struct {
	Position  time.Duration
	Duration  time.Duration
	Playing   bool
	Loop      bool
	Ready     bool
	Started   bool // play has been called at least once
	Exhausted bool // reached the end without looping
	Rate      float64
	Volume    float64
}

// Config holds clock configuration.
// Zero Volume and Rate mean 1.0; mute with SetVolume(0) after construction.
type Config struct {
	Output output.Output
	Volume float64
	Rate   float64
	Loop   bool
}

// Clock is the single source of playback time.
// It implements io.Reader for the output device.
type Clock struct {
	mu  sync.Mutex
	out output.Output

	clip       *audio.Clip
	frames     int
	sampleRate int
	channels   int
	ready      bool
	loading    bool

	cursor    float64 // frames
	playing   bool
	started   bool
	exhausted bool
	loop      bool
	rate      float64
	volume    float64

	// Requested before the source was ready
	pendingPlay    bool
	pendingSeek    bool
	pendingSeekPos time.Duration

	jumps []Jump
}

// New creates a clock bound to an output device
func New(config Config) (*Clock, error) {
	if config.Output == nil {
		return nil, fmt.Errorf("clock requires an output")
	}
	if config.Volume == 0 {
		config.Volume = 1
	}
	if config.Rate == 0 {
		config.Rate = 1
	}
	if config.Volume < 0 || config.Volume > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVolume, config.Volume)
	}
	if config.Rate < 0 || config.Rate > MaxRate {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRate, config.Rate)
	}

	return &Clock{
		out:    config.Output,
		volume: config.Volume,
		rate:   config.Rate,
		loop:   config.Loop,
	}, nil
}

// Load installs a decoded clip and opens the output device.
// Failures are returned as *LoadError and are not retried.
func (c *Clock) Load(clip *audio.Clip) error {
	source := "clip"
	if clip != nil && clip.Format.Codec != "" {
		source = clip.Format.Codec
	}
	return c.load(source, clip)
}

// LoadAsync decodes on a goroutine and installs the result.
// The channel receives exactly one value: nil or the load error.
func (c *Clock) LoadAsync(ctx context.Context, source string, decode func(context.Context) (*audio.Clip, error)) <-chan error {
	done := make(chan error, 1)

	go func() {
		clip, err := decode(ctx)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			done <- &LoadError{Source: source, Err: err}
			return
		}
		done <- c.load(source, clip)
	}()

	return done
}

func (c *Clock) load(source string, clip *audio.Clip) error {
	if clip == nil || clip.Frames() == 0 || clip.Format.SampleRate <= 0 {
		return &LoadError{Source: source, Err: ErrEmptySource}
	}

	c.mu.Lock()
	if c.ready {
		c.mu.Unlock()
		return ErrAlreadyLoaded
	}
	if c.loading {
		c.mu.Unlock()
		return ErrLoading
	}
	c.loading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	// Fit the clip to a device that is already running
	sampleRate, channels := c.out.Format()
	if sampleRate > 0 && channels > 0 {
		if sampleRate != clip.Format.SampleRate {
			log.Printf("Resampling %s from %dHz to device rate %dHz", source, clip.Format.SampleRate, sampleRate)
			fitted, err := resample.Clip(clip, sampleRate)
			if err != nil {
				return &LoadError{Source: source, Err: err}
			}
			clip = fitted
		}
		clip = clip.Remix(channels)
	} else {
		sampleRate = clip.Format.SampleRate
		channels = clip.Format.Channels
	}

	// The device may start pulling right away; Read yields silence until ready
	if err := c.out.Open(sampleRate, channels, c); err != nil {
		return &LoadError{Source: source, Err: fmt.Errorf("failed to open output: %w", err)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.clip = clip
	c.frames = clip.Frames()
	c.sampleRate = sampleRate
	c.channels = channels
	c.ready = true

	if c.pendingSeek {
		c.seekLocked(c.pendingSeekPos)
		c.pendingSeek = false
	}
	if c.pendingPlay {
		c.playLocked()
		c.pendingPlay = false
	}

	log.Printf("Clock ready: %s, %v at %dHz/%dch", source, c.durationLocked(), sampleRate, channels)
	return nil
}

// Play starts or resumes playback. Playing after the end restarts from zero.
func (c *Clock) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		c.pendingPlay = true
		return
	}
	c.playLocked()
}

// PlayFrom seeks to t and starts playback
func (c *Clock) PlayFrom(t time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		c.pendingSeek = true
		c.pendingSeekPos = t
		c.pendingPlay = true
		return
	}
	c.seekLocked(t)
	c.playLocked()
}

// Pause stops the position from advancing
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		c.pendingPlay = false
		return
	}
	c.playing = false
}

// Seek moves the position, clamped to [0, duration] or wrapped when looping
func (c *Clock) Seek(t time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		c.pendingSeek = true
		c.pendingSeekPos = t
		return
	}
	c.seekLocked(t)
}

func (c *Clock) playLocked() {
	if c.exhausted {
		c.recordJump(Jump{From: c.positionLocked(), To: 0})
		c.cursor = 0
		c.exhausted = false
	}
	c.playing = true
	c.started = true
}

func (c *Clock) seekLocked(t time.Duration) {
	duration := c.durationLocked()

	if c.loop && duration > 0 {
		t %= duration
		if t < 0 {
			t += duration
		}
	} else if t < 0 {
		t = 0
	} else if t > duration {
		t = duration
	}

	from := c.positionLocked()
	c.cursor = audio.DurationToFrames(t, c.sampleRate)
	if c.cursor > float64(c.frames) {
		c.cursor = float64(c.frames)
	}

	if !c.loop && t >= duration {
		c.exhausted = true
		c.playing = false
	} else {
		c.exhausted = false
	}

	c.recordJump(Jump{From: from, To: t})
}

func (c *Clock) recordJump(j Jump) {
	if j.From == j.To && !j.Wrap {
		return
	}
	if len(c.jumps) >= maxJumps {
		// Coalesce the two oldest jumps
		c.jumps[1] = Jump{
			From: c.jumps[0].From,
			To:   c.jumps[1].To,
			Wrap: c.jumps[0].Wrap || c.jumps[1].Wrap,
		}
		c.jumps = c.jumps[1:]
	}
	c.jumps = append(c.jumps, j)
}

// TakeJumps returns and clears the jumps recorded since the last call
func (c *Clock) TakeJumps() []Jump {
	c.mu.Lock()
	defer c.mu.Unlock()

	jumps := c.jumps
	c.jumps = nil
	return jumps
}

// Poll returns the playback state together with the jumps that led to it.
// Both are taken under one lock so the position always follows the last jump.
func (c *Clock) Poll() (State, []Jump) {
	c.mu.Lock()
	defer c.mu.Unlock()

	jumps := c.jumps
	c.jumps = nil
	return c.snapshotLocked(), jumps
}

// SetVolume sets the software volume in [0, 1]
func (c *Clock) SetVolume(v float64) error {
	if v < 0 || v > 1 || math.IsNaN(v) {
		return fmt.Errorf("%w: %v", ErrInvalidVolume, v)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = v
	return nil
}

// Volume returns the current volume
func (c *Clock) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// SetRate sets the playback rate in (0, MaxRate]
func (c *Clock) SetRate(r float64) error {
	if r <= 0 || r > MaxRate || math.IsNaN(r) {
		return fmt.Errorf("%w: %v", ErrInvalidRate, r)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.rate = r
	return nil
}

// SetLoop toggles looping
func (c *Clock) SetLoop(loop bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loop = loop
	if loop && c.exhausted {
		c.exhausted = false
	}
}

// CurrentTime returns the playback position
func (c *Clock) CurrentTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

// IsPlaying reports whether the position is advancing
func (c *Clock) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready && c.playing
}

// Duration returns the loaded clip length, zero before ready
func (c *Clock) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.durationLocked()
}

// SampleRate returns the rate the clip plays at, zero before ready
func (c *Clock) SampleRate() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sampleRate
}

// Snapshot returns the full playback state
func (c *Clock) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Clock) snapshotLocked() State {
	return State{
		Position:  c.positionLocked(),
		Duration:  c.durationLocked(),
		Playing:   c.ready && c.playing,
		Loop:      c.loop,
		Ready:     c.ready,
		Started:   c.started,
		Exhausted: c.exhausted,
		Rate:      c.rate,
		Volume:    c.volume,
	}
}

func (c *Clock) positionLocked() time.Duration {
	if !c.ready {
		return 0
	}
	pos := c.cursor
	if pos > float64(c.frames) {
		pos = float64(c.frames)
	}
	return audio.FramesToDuration(pos, c.sampleRate)
}

func (c *Clock) durationLocked() time.Duration {
	if !c.ready {
		return 0
	}
	return audio.FramesToDuration(float64(c.frames), c.sampleRate)
}

// Window fills dst with the mono signal ending at the current position.
// Samples outside the clip are zero. It returns false, leaving dst zeroed,
// when playback has not started or the source is exhausted.
func (c *Clock) Window(dst []float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready || !c.started || c.exhausted {
		for i := range dst {
			dst[i] = 0
		}
		return false
	}

	end := int(c.cursor)
	start := end - len(dst)
	for i := range dst {
		dst[i] = float64(c.clip.MonoAt(start + i))
	}
	return true
}

// Read supplies interleaved float32 little-endian frames to the output device
func (c *Clock) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready || c.channels == 0 {
		clear(p)
		return len(p), nil
	}

	frameBytes := c.channels * output.BytesPerSample
	frames := len(p) / frameBytes
	volume := float32(c.volume)

	for f := 0; f < frames; f++ {
		out := p[f*frameBytes : (f+1)*frameBytes]

		if !c.playing {
			clear(out)
			continue
		}

		if c.cursor >= float64(c.frames) {
			if c.loop {
				c.recordJump(Jump{From: c.durationLocked(), To: 0, Wrap: true})
				c.cursor = math.Mod(c.cursor, float64(c.frames))
			} else {
				c.cursor = float64(c.frames)
				c.playing = false
				c.exhausted = true
				clear(out)
				continue
			}
		}

		idx := int(c.cursor)
		frac := float32(c.cursor - float64(idx))
		next := idx + 1
		if next >= c.frames {
			next = idx
		}

		for ch := 0; ch < c.channels; ch++ {
			s1 := c.clip.Samples[idx*c.channels+ch]
			s2 := c.clip.Samples[next*c.channels+ch]
			v := (s1*(1-frac) + s2*frac) * volume
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			binary.LittleEndian.PutUint32(out[ch*output.BytesPerSample:], math.Float32bits(v))
		}

		c.cursor += c.rate
	}

	clear(p[frames*frameBytes:])
	return len(p), nil
}

// Close releases the output device
func (c *Clock) Close() error {
	return c.out.Close()
}
