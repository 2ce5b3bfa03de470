// ABOUTME: Tests for the spectrum sampler
// ABOUTME: Covers frame shape, zero frames and tone peak placement
package spectrum

import (
	"errors"
	"math"
	"testing"
)

// sineSource produces a sine wave window at a fixed frequency
type sineSource struct {
	frequency  float64
	amplitude  float64
	sampleRate int
	playing    bool
}

func (s *sineSource) Window(dst []float64) bool {
	if !s.playing {
		for i := range dst {
			dst[i] = 0
		}
		return false
	}
	for i := range dst {
		t := float64(i) / float64(s.sampleRate)
		dst[i] = s.amplitude * math.Sin(2*math.Pi*s.frequency*t)
	}
	return true
}

func (s *sineSource) SampleRate() int {
	return s.sampleRate
}

func TestNewAppliesDefaults(t *testing.T) {
	s, err := New(Config{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s.Bins() != DefaultBins {
		t.Errorf("expected %d bins, got %d", DefaultBins, s.Bins())
	}
	if s.FFTSize() != 2*DefaultBins {
		t.Errorf("expected fft size %d, got %d", 2*DefaultBins, s.FFTSize())
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"not power of two", Config{Bins: 300}},
		{"too small", Config{Bins: 8}},
		{"too large", Config{Bins: 16384}},
		{"inverted decibels", Config{MinDecibels: -30, MaxDecibels: -100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.config); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSampleReturnsZeroFrameWhenIdle(t *testing.T) {
	s, err := New(Config{Bins: 64})
	if err != nil {
		t.Fatal(err)
	}

	frames := []Frame{
		s.Sample(nil),
		s.Sample(&sineSource{frequency: 440, amplitude: 0.5, sampleRate: 44100}),
	}
	for i, frame := range frames {
		if len(frame) != 64 {
			t.Fatalf("frame %d: expected 64 bins, got %d", i, len(frame))
		}
		for j, v := range frame {
			if v != 0 {
				t.Fatalf("frame %d bin %d: expected 0, got %v", i, j, v)
			}
		}
	}
}

func TestSampleSilenceIsZero(t *testing.T) {
	s, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}

	frame := s.Sample(&sineSource{frequency: 440, amplitude: 0, sampleRate: 44100, playing: true})
	for i, v := range frame {
		if v != 0 {
			t.Fatalf("bin %d: expected 0 for silence, got %v", i, v)
		}
	}
}

func TestSampleTonePeaksInExpectedBin(t *testing.T) {
	s, err := New(Config{Bins: 256, MinDecibels: -100, MaxDecibels: 0})
	if err != nil {
		t.Fatal(err)
	}

	const sampleRate = 44100
	const bin = 20
	src := &sineSource{
		frequency:  s.BinFrequency(bin, sampleRate),
		amplitude:  0.5,
		sampleRate: sampleRate,
		playing:    true,
	}

	frame := s.Sample(src)
	if len(frame) != 256 {
		t.Fatalf("expected 256 bins, got %d", len(frame))
	}

	peak := 0
	for i, v := range frame {
		if v < 0 || v > MaxMagnitude {
			t.Fatalf("bin %d out of range: %v", i, v)
		}
		if v > frame[peak] {
			peak = i
		}
	}
	if peak != bin {
		t.Errorf("expected peak at bin %d, got %d", bin, peak)
	}
	if frame[200] >= frame[bin] {
		t.Errorf("distant bin should be quieter: %v >= %v", frame[200], frame[bin])
	}
}

func TestSampleDoesNotRetainFrames(t *testing.T) {
	s, err := New(Config{Bins: 32})
	if err != nil {
		t.Fatal(err)
	}
	src := &sineSource{frequency: 1000, amplitude: 0.5, sampleRate: 8000, playing: true}

	first := s.Sample(src)
	first[0] = -1
	second := s.Sample(src)
	if second[0] == -1 {
		t.Error("frames should not share storage")
	}
}

// corruptSource is a sine window with one sample replaced
type corruptSource struct {
	sineSource
	bad float64
}

func (s *corruptSource) Window(dst []float64) bool {
	ok := s.sineSource.Window(dst)
	dst[len(dst)/2] = s.bad
	return ok
}

func TestSampleStaysInRangeWithBadSamples(t *testing.T) {
	tests := []struct {
		name string
		bad  float64
	}{
		{"nan", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
	}

	s, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &corruptSource{
				sineSource: sineSource{frequency: 1000, amplitude: 0.5, sampleRate: 44100, playing: true},
				bad:        tt.bad,
			}
			frame := s.Sample(src)
			for i, v := range frame {
				if math.IsNaN(v) || v < 0 || v > MaxMagnitude {
					t.Fatalf("bin %d: %v outside [0, %v]", i, v, MaxMagnitude)
				}
			}
		})
	}
}

func TestBinForFrequency(t *testing.T) {
	s, err := New(Config{Bins: 256})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		hz   float64
		want int
	}{
		{0, 0},
		{-50, 0},
		{s.BinFrequency(7, 44100), 7},
		{40, 0},  // 0.46
		{100, 1}, // 100*512/44100 = 1.16
		{150, 2}, // 1.74
		{30000, 255},
	}

	for _, tt := range tests {
		if got := s.BinForFrequency(tt.hz, 44100); got != tt.want {
			t.Errorf("BinForFrequency(%v) = %d, want %d", tt.hz, got, tt.want)
		}
	}
}
