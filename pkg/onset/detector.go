// ABOUTME: Kick detector driven by spectrum band energy
// ABOUTME: Hysteresis state machine emitting kick and off-kick edges
package onset

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

var ErrInvalidConfig = errors.New("invalid detector config")

// Aggregate selects how band bins are combined into one energy value
type Aggregate int

const (
	Mean Aggregate = iota
	Sum
	Peak
)

func (a Aggregate) String() string {
	switch a {
	case Mean:
		return "mean"
	case Sum:
		return "sum"
	case Peak:
		return "peak"
	default:
		return fmt.Sprintf("aggregate(%d)", int(a))
	}
}

// ParseAggregate parses "mean", "sum" or "peak"
func ParseAggregate(s string) (Aggregate, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mean":
		return Mean, nil
	case "sum":
		return Sum, nil
	case "peak", "max":
		return Peak, nil
	default:
		return Mean, fmt.Errorf("%w: unknown aggregate %q", ErrInvalidConfig, s)
	}
}

// Edge describes a kick or off-kick transition
type Edge struct {
	At     time.Duration // song time of the transition
	Energy float64       // band energy that caused it
}

// Config holds detector configuration
type Config struct {
	LowBin    int // inclusive
	HighBin   int // inclusive
	Threshold float64
	Decay     time.Duration
	Aggregate Aggregate
	OnKick    func(Edge)
	OnOffKick func(Edge)
}

// State is a snapshot of the detector
type State struct {
	LowBin      int
	HighBin     int
	Threshold   float64
	Decay       time.Duration
	Aggregate   Aggregate
	Armed       bool
	TriggeredAt time.Duration
	Enabled     bool
	Energy      float64 // most recent band energy
}

// Detector turns per-frame band energy into kick edges.
// Callbacks run synchronously on the ticking goroutine, outside the lock.
type Detector struct {
	mu          sync.Mutex
	lowBin      int
	highBin     int
	threshold   float64
	decay       time.Duration
	aggregate   Aggregate
	armed       bool
	triggeredAt time.Duration
	enabled     bool
	energy      float64
	onKick      func(Edge)
	onOffKick   func(Edge)
}

// New creates an enabled, idle detector
func New(config Config) (*Detector, error) {
	if err := validateBand(config.LowBin, config.HighBin); err != nil {
		return nil, err
	}
	if err := validateThreshold(config.Threshold); err != nil {
		return nil, err
	}
	if err := validateDecay(config.Decay); err != nil {
		return nil, err
	}
	if err := validateAggregate(config.Aggregate); err != nil {
		return nil, err
	}

	return &Detector{
		lowBin:    config.LowBin,
		highBin:   config.HighBin,
		threshold: config.Threshold,
		decay:     config.Decay,
		aggregate: config.Aggregate,
		enabled:   true,
		onKick:    config.OnKick,
		onOffKick: config.OnOffKick,
	}, nil
}

func validateBand(low, high int) error {
	if low < 0 || high < low {
		return fmt.Errorf("%w: band [%d, %d]", ErrInvalidConfig, low, high)
	}
	return nil
}

func validateThreshold(threshold float64) error {
	if threshold < 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return fmt.Errorf("%w: threshold %v", ErrInvalidConfig, threshold)
	}
	return nil
}

func validateDecay(decay time.Duration) error {
	if decay < 0 {
		return fmt.Errorf("%w: decay %v", ErrInvalidConfig, decay)
	}
	return nil
}

func validateAggregate(a Aggregate) error {
	if a < Mean || a > Peak {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, a)
	}
	return nil
}

// Tick computes band energy from a spectrum frame and runs the state machine.
// It returns the band energy, which is computed even while disabled.
func (d *Detector) Tick(frame []float64, now time.Duration) float64 {
	d.mu.Lock()
	energy := d.bandEnergyLocked(frame)
	d.mu.Unlock()

	d.Observe(energy, now)
	return energy
}

func (d *Detector) bandEnergyLocked(frame []float64) float64 {
	low, high := d.lowBin, d.highBin
	if high >= len(frame) {
		high = len(frame) - 1
	}
	if low > high {
		return 0
	}

	band := frame[low : high+1]
	switch d.aggregate {
	case Sum:
		sum := 0.0
		for _, v := range band {
			sum += v
		}
		return sum
	case Peak:
		peak := 0.0
		for _, v := range band {
			if v > peak {
				peak = v
			}
		}
		return peak
	default:
		sum := 0.0
		for _, v := range band {
			sum += v
		}
		return sum / float64(len(band))
	}
}

// Observe runs the state machine on a precomputed band energy
func (d *Detector) Observe(energy float64, now time.Duration) {
	var callback func(Edge)

	d.mu.Lock()
	d.energy = energy
	if !d.enabled {
		d.mu.Unlock()
		return
	}

	if !d.armed {
		if energy >= d.threshold {
			d.armed = true
			d.triggeredAt = now
			callback = d.onKick
		}
	} else {
		// A rewind past the trigger counts as the decay having elapsed
		elapsed := now < d.triggeredAt || now-d.triggeredAt >= d.decay
		if elapsed || energy < d.threshold {
			d.armed = false
			callback = d.onOffKick
		}
	}
	d.mu.Unlock()

	if callback != nil {
		callback(Edge{At: now, Energy: energy})
	}
}

// Enable resumes tick processing from the preserved state
func (d *Detector) Enable() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = true
}

// Disable freezes the detector without resetting it or emitting an off-kick
func (d *Detector) Disable() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = false
}

// Enabled reports whether ticks are processed
func (d *Detector) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

// SetBand changes the inclusive bin range
func (d *Detector) SetBand(low, high int) error {
	if err := validateBand(low, high); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lowBin, d.highBin = low, high
	return nil
}

// SetThreshold changes the trigger level
func (d *Detector) SetThreshold(threshold float64) error {
	if err := validateThreshold(threshold); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.threshold = threshold
	return nil
}

// SetDecay changes the maximum time a kick stays triggered
func (d *Detector) SetDecay(decay time.Duration) error {
	if err := validateDecay(decay); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.decay = decay
	return nil
}

// SetAggregate changes how band bins are combined
func (d *Detector) SetAggregate(a Aggregate) error {
	if err := validateAggregate(a); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.aggregate = a
	return nil
}

// State returns a snapshot of the detector
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	return State{
		LowBin:      d.lowBin,
		HighBin:     d.highBin,
		Threshold:   d.threshold,
		Decay:       d.decay,
		Aggregate:   d.aggregate,
		Armed:       d.armed,
		TriggeredAt: d.triggeredAt,
		Enabled:     d.enabled,
		Energy:      d.energy,
	}
}
