// ABOUTME: Audio-synchronized visual driver
// ABOUTME: Ticks clock, spectrum, kick detector and cue scheduler once per frame
package pulse

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/pulse/pkg/audio"
	"github.com/Resonate-Protocol/pulse/pkg/audio/decode"
	"github.com/Resonate-Protocol/pulse/pkg/audio/output"
	"github.com/Resonate-Protocol/pulse/pkg/clock"
	"github.com/Resonate-Protocol/pulse/pkg/cue"
	"github.com/Resonate-Protocol/pulse/pkg/onset"
	"github.com/Resonate-Protocol/pulse/pkg/spectrum"
	"github.com/google/uuid"
)

// Config holds driver configuration
type Config struct {
	// Bins is the spectrum length (default: 256)
	Bins int

	// MinDecibels and MaxDecibels bound the magnitude scale (default: -100, -30)
	MinDecibels float64
	MaxDecibels float64

	// Kick configures the onset detector
	Kick KickConfig

	// Loop restarts playback at the end of the clip
	Loop bool

	// Volume is the initial volume in [0, 1] (default: 1)
	Volume float64

	// Rate is the playback rate (default: 1)
	Rate float64

	// Output is the audio device (default: oto)
	Output output.Output

	// Decoders resolves file formats (default: decode.DefaultRegistry)
	Decoders *decode.Registry

	// OnError is called when an asynchronous load fails
	OnError func(error)
}

// KickConfig describes the kick band in Hz.
// Bins are resolved once the playback sample rate is known.
type KickConfig struct {
	LowHz     float64       // default: 40
	HighHz    float64       // default: 150
	Threshold float64       // on the 0-255 spectrum scale (default: 180)
	Decay     time.Duration // default: 150ms
	Aggregate onset.Aggregate
}

// Tick is the outcome of one frame
type Tick struct {
	Position time.Duration
	Playing  bool
	Spectrum spectrum.Frame
	Energy   float64 // kick band energy
	Kicked   bool
	Released bool
	Fired    []string // cue names, in firing order
}

// Driver ties the playback clock to the analysis components
type Driver struct {
	id       string
	config   Config
	decoders *decode.Registry

	clock   *clock.Clock
	sampler *spectrum.Sampler
	kick    *onset.Detector
	cues    *cue.Scheduler

	mu        sync.Mutex
	onKick    []func(onset.Edge)
	onOffKick []func(onset.Edge)
	last      spectrum.Frame

	// Touched only from Tick
	prev         time.Duration
	bandResolved bool
	kicked       bool
	released     bool
}

// New creates a driver with the given configuration
func New(config Config) (*Driver, error) {
	// Set defaults
	if config.Kick.LowHz == 0 {
		config.Kick.LowHz = 40
	}
	if config.Kick.HighHz == 0 {
		config.Kick.HighHz = 150
	}
	if config.Kick.Threshold == 0 {
		config.Kick.Threshold = 180
	}
	if config.Kick.Decay == 0 {
		config.Kick.Decay = 150 * time.Millisecond
	}
	if config.Output == nil {
		config.Output = output.NewOto(0)
	}
	if config.Decoders == nil {
		config.Decoders = decode.DefaultRegistry()
	}
	if config.Kick.LowHz < 0 || config.Kick.HighHz < config.Kick.LowHz {
		return nil, fmt.Errorf("%w: kick band %v-%vHz", onset.ErrInvalidConfig, config.Kick.LowHz, config.Kick.HighHz)
	}

	sampler, err := spectrum.New(spectrum.Config{
		Bins:        config.Bins,
		MinDecibels: config.MinDecibels,
		MaxDecibels: config.MaxDecibels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create spectrum sampler: %w", err)
	}

	c, err := clock.New(clock.Config{
		Output: config.Output,
		Volume: config.Volume,
		Rate:   config.Rate,
		Loop:   config.Loop,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create clock: %w", err)
	}

	d := &Driver{
		id:       uuid.New().String(),
		config:   config,
		decoders: config.Decoders,
		clock:    c,
		sampler:  sampler,
		cues:     cue.New(),
		last:     sampler.Zero(),
		prev:     beforeStart,
	}

	d.kick, err = onset.New(onset.Config{
		Threshold: config.Kick.Threshold,
		Decay:     config.Kick.Decay,
		Aggregate: config.Kick.Aggregate,
		OnKick:    d.handleKick,
		OnOffKick: d.handleOffKick,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kick detector: %w", err)
	}

	return d, nil
}

// beforeStart sits just ahead of zero so cues at 0 fire when playback starts
const beforeStart = -time.Nanosecond

// ID returns the unique driver identifier
func (d *Driver) ID() string {
	return d.id
}

// Load installs an already decoded clip
func (d *Driver) Load(clip *audio.Clip) error {
	return d.clock.Load(clip)
}

// LoadFile decodes a local file and installs it
func (d *Driver) LoadFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return &clock.LoadError{Source: path, Err: err}
	}

	clip, err := d.decoders.LoadFile(path)
	if err != nil {
		return &clock.LoadError{Source: path, Err: err}
	}

	return d.clock.Load(clip)
}

// LoadAsync decodes a local file in the background.
// Controls issued before it completes are applied once the clip is ready.
func (d *Driver) LoadAsync(ctx context.Context, path string) <-chan error {
	done := d.clock.LoadAsync(ctx, path, func(context.Context) (*audio.Clip, error) {
		return d.decoders.LoadFile(path)
	})

	if d.config.OnError == nil {
		return done
	}

	// Forward failures to OnError while still reporting them to the caller
	out := make(chan error, 1)
	go func() {
		err := <-done
		if err != nil {
			d.config.OnError(err)
		}
		out <- err
	}()
	return out
}

// Tick advances the analysis by one visual frame.
// Order: clock, spectrum, kick detector, cue scheduler.
func (d *Driver) Tick() Tick {
	state, jumps := d.clock.Poll()
	d.resolveBand()

	frame := d.sampler.Sample(d.clock)
	d.mu.Lock()
	d.last = frame
	d.mu.Unlock()

	d.kicked, d.released = false, false
	energy := d.kick.Tick(frame, state.Position)

	fired := d.tickCues(state, jumps)

	return Tick{
		Position: state.Position,
		Playing:  state.Playing,
		Spectrum: frame,
		Energy:   energy,
		Kicked:   d.kicked,
		Released: d.released,
		Fired:    fired,
	}
}

// resolveBand maps the kick band from Hz to bins once the rate is known
func (d *Driver) resolveBand() {
	if d.bandResolved {
		return
	}
	rate := d.clock.SampleRate()
	if rate == 0 {
		return
	}

	low := d.sampler.BinForFrequency(d.config.Kick.LowHz, rate)
	high := d.sampler.BinForFrequency(d.config.Kick.HighHz, rate)
	if err := d.kick.SetBand(low, high); err != nil {
		log.Printf("Failed to set kick band: %v", err)
		return
	}
	d.bandResolved = true
	log.Printf("Kick band %v-%vHz mapped to bins %d-%d at %dHz",
		d.config.Kick.LowHz, d.config.Kick.HighHz, low, high, rate)
}

// tickCues replays recorded jumps so seeks and wraps are not mistaken for
// playback, then ticks normal progress up to the current position.
func (d *Driver) tickCues(state clock.State, jumps []clock.Jump) []string {
	var fired []string
	prev := d.prev

	for _, j := range jumps {
		if state.Started {
			fired = append(fired, d.cues.Tick(j.From, prev)...)
		}
		to := j.To
		if to == 0 {
			to = beforeStart
		}
		d.cues.Jump(j.From, to)
		prev = to
	}

	if state.Started {
		fired = append(fired, d.cues.Tick(state.Position, prev)...)
		prev = state.Position
	}

	d.prev = prev
	return fired
}

func (d *Driver) handleKick(e onset.Edge) {
	d.kicked = true
	d.mu.Lock()
	callbacks := append([]func(onset.Edge){}, d.onKick...)
	d.mu.Unlock()

	for _, cb := range callbacks {
		cb(e)
	}
}

func (d *Driver) handleOffKick(e onset.Edge) {
	d.released = true
	d.mu.Lock()
	callbacks := append([]func(onset.Edge){}, d.onOffKick...)
	d.mu.Unlock()

	for _, cb := range callbacks {
		cb(e)
	}
}

// GetSpectrum returns a copy of the latest spectrum frame.
// It is all zeros before the first tick.
func (d *Driver) GetSpectrum() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]float64, len(d.last))
	copy(out, d.last)
	return out
}

// OnKick registers a callback for kick onsets
func (d *Driver) OnKick(cb func(onset.Edge)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onKick = append(d.onKick, cb)
}

// OffKick registers a callback for kick releases
func (d *Driver) OffKick(cb func(onset.Edge)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onOffKick = append(d.onOffKick, cb)
}

// OnceAt runs cb the first time playback crosses at
func (d *Driver) OnceAt(name string, at time.Duration, cb func()) error {
	return d.cues.RegisterOnce(name, at, cb)
}

// Cancel removes a pending cue
func (d *Driver) Cancel(name string) {
	d.cues.Cancel(name)
}

// Cues returns the registered cues ordered by time
func (d *Driver) Cues() []cue.Event {
	return d.cues.Events()
}

// Kick exposes the detector for runtime tuning
func (d *Driver) Kick() *onset.Detector {
	return d.kick
}

// Play starts or resumes playback
func (d *Driver) Play() {
	d.clock.Play()
}

// PlayFrom starts playback at t
func (d *Driver) PlayFrom(t time.Duration) {
	d.clock.PlayFrom(t)
}

// Pause stops playback
func (d *Driver) Pause() {
	d.clock.Pause()
}

// Seek moves the playback position
func (d *Driver) Seek(t time.Duration) {
	d.clock.Seek(t)
}

// Volume returns the current volume in [0, 1]
func (d *Driver) Volume() float64 {
	return d.clock.Volume()
}

// SetVolume sets the volume in [0, 1]
func (d *Driver) SetVolume(v float64) error {
	return d.clock.SetVolume(v)
}

// SetLoop toggles looping
func (d *Driver) SetLoop(loop bool) {
	d.clock.SetLoop(loop)
}

// SetRate changes the playback rate
func (d *Driver) SetRate(rate float64) error {
	return d.clock.SetRate(rate)
}

// CurrentTime returns the playback position
func (d *Driver) CurrentTime() time.Duration {
	return d.clock.CurrentTime()
}

// IsPlaying reports whether playback is advancing
func (d *Driver) IsPlaying() bool {
	return d.clock.IsPlaying()
}

// Duration returns the loaded clip length
func (d *Driver) Duration() time.Duration {
	return d.clock.Duration()
}

// State returns the playback state
func (d *Driver) State() clock.State {
	return d.clock.Snapshot()
}

// Bins returns the spectrum length
func (d *Driver) Bins() int {
	return d.sampler.Bins()
}

// Close stops the audio device
func (d *Driver) Close() error {
	return d.clock.Close()
}
