// ABOUTME: Spectrum sampler computing per-frame magnitude bins
// ABOUTME: Blackman-windowed real FFT over the audio ending at the playback position
package spectrum

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	// MaxMagnitude is the largest value a frame bin can hold
	MaxMagnitude = 255.0

	DefaultBins        = 256
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0

	minBins = 16
	maxBins = 8192
)

var ErrInvalidConfig = errors.New("invalid spectrum config")

// Frame holds one magnitude per linear frequency bin, each in [0, MaxMagnitude]
type Frame []float64

// Source provides the mono signal ending at the playback position
type Source interface {
	// Window fills dst with the most recent len(dst) samples, zero-padded
	// outside the clip. It returns false when nothing is playing.
	Window(dst []float64) bool
	SampleRate() int
}

// Config holds sampler configuration
type Config struct {
	Bins        int     // power of two; FFT size is twice this
	MinDecibels float64 // maps to 0
	MaxDecibels float64 // maps to MaxMagnitude
}

// Sampler turns the current audio window into a Frame.
// It is not safe for concurrent use.
type Sampler struct {
	bins    int
	fftSize int
	minDB   float64
	maxDB   float64

	fft     *fourier.FFT
	weights []float64
	signal  []float64
	coeffs  []complex128
}

// New creates a sampler with defaults applied for zero values
func New(config Config) (*Sampler, error) {
	if config.Bins == 0 {
		config.Bins = DefaultBins
	}
	if config.MinDecibels == 0 && config.MaxDecibels == 0 {
		config.MinDecibels = DefaultMinDecibels
		config.MaxDecibels = DefaultMaxDecibels
	}

	if config.Bins < minBins || config.Bins > maxBins || config.Bins&(config.Bins-1) != 0 {
		return nil, fmt.Errorf("%w: bins must be a power of two in [%d, %d], got %d",
			ErrInvalidConfig, minBins, maxBins, config.Bins)
	}
	if config.MinDecibels >= config.MaxDecibels {
		return nil, fmt.Errorf("%w: min decibels %v must be below max %v",
			ErrInvalidConfig, config.MinDecibels, config.MaxDecibels)
	}

	fftSize := config.Bins * 2

	// Window coefficients are the Blackman window applied to a constant signal
	weights := make([]float64, fftSize)
	for i := range weights {
		weights[i] = 1
	}
	window.Blackman(weights)

	return &Sampler{
		bins:    config.Bins,
		fftSize: fftSize,
		minDB:   config.MinDecibels,
		maxDB:   config.MaxDecibels,
		fft:     fourier.NewFFT(fftSize),
		weights: weights,
		signal:  make([]float64, fftSize),
		coeffs:  make([]complex128, fftSize/2+1),
	}, nil
}

// Bins returns the frame length
func (s *Sampler) Bins() int {
	return s.bins
}

// FFTSize returns the transform length in samples
func (s *Sampler) FFTSize() int {
	return s.fftSize
}

// BinFrequency returns the centre frequency of bin i
func (s *Sampler) BinFrequency(i, sampleRate int) float64 {
	return float64(i) * float64(sampleRate) / float64(s.fftSize)
}

// BinForFrequency returns the bin closest to hz, clamped to the frame
func (s *Sampler) BinForFrequency(hz float64, sampleRate int) int {
	if sampleRate <= 0 {
		return 0
	}
	bin := int(math.Round(hz * float64(s.fftSize) / float64(sampleRate)))
	if bin < 0 {
		return 0
	}
	if bin >= s.bins {
		return s.bins - 1
	}
	return bin
}

// Zero returns an all-zero frame of the configured length
func (s *Sampler) Zero() Frame {
	return make(Frame, s.bins)
}

// Sample computes a new frame from the source. It never fails: a source
// with nothing playing yields an all-zero frame.
func (s *Sampler) Sample(src Source) Frame {
	frame := s.Zero()
	if src == nil || !src.Window(s.signal) {
		return frame
	}

	for i := range s.signal {
		s.signal[i] *= s.weights[i]
	}
	s.fft.Coefficients(s.coeffs, s.signal)

	scale := 1 / float64(s.fftSize)
	span := s.maxDB - s.minDB
	for i := range frame {
		m := cmplx.Abs(s.coeffs[i]) * scale
		if m == 0 {
			continue
		}
		db := 20 * math.Log10(m)
		v := MaxMagnitude * (db - s.minDB) / span
		if math.IsNaN(v) {
			continue
		}
		if v < 0 {
			v = 0
		} else if v > MaxMagnitude {
			v = MaxMagnitude
		}
		frame[i] = v
	}

	return frame
}
