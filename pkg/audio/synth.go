// ABOUTME: Synthetic clip generators
// ABOUTME: Builds sine tones and four-on-the-floor kick patterns for demos and tests
package audio

import (
	"math"
	"time"
)

// DefaultSampleRate is used by the generators when none is given
const DefaultSampleRate = 44100

// Tone generates a stereo sine wave at half amplitude
func Tone(frequency float64, duration time.Duration, sampleRate int) *Clip {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	frames := int(DurationToFrames(duration, sampleRate))
	samples := make([]float32, frames*2)

	for i := 0; i < frames; i++ {
		t := float64(i) / float64(sampleRate)
		v := float32(math.Sin(2*math.Pi*frequency*t) * 0.5)
		samples[i*2] = v
		samples[i*2+1] = v
	}

	return &Clip{
		Format:  Format{Codec: "tone", SampleRate: sampleRate, Channels: 2, BitDepth: 32},
		Samples: samples,
	}
}

// Silence generates a stereo clip of zeros
func Silence(duration time.Duration, sampleRate int) *Clip {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	frames := int(DurationToFrames(duration, sampleRate))
	return &Clip{
		Format:  Format{Codec: "silence", SampleRate: sampleRate, Channels: 2, BitDepth: 32},
		Samples: make([]float32, frames*2),
	}
}

// KickPattern generates one low decaying sine burst per beat over a quiet hi-hat bed.
// Useful as a demo track: every beat should register as a kick.
func KickPattern(bpm float64, duration time.Duration, sampleRate int) *Clip {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if bpm <= 0 {
		bpm = 120
	}
	frames := int(DurationToFrames(duration, sampleRate))
	beatFrames := int(60.0 / bpm * float64(sampleRate))
	kickFrames := sampleRate / 8 // 125ms body
	samples := make([]float32, frames*2)

	for i := 0; i < frames; i++ {
		var v float64
		pos := i % beatFrames
		if pos < kickFrames {
			t := float64(pos) / float64(sampleRate)
			env := math.Exp(-t * 30)
			// Pitch sweeps from 120Hz down towards 50Hz
			freq := 50 + 70*math.Exp(-t*40)
			v = math.Sin(2*math.Pi*freq*t) * env * 0.9
		}
		// Off-beat hi-hat: a short high tone halfway through the beat
		if off := pos - beatFrames/2; off >= 0 && off < sampleRate/50 {
			t := float64(off) / float64(sampleRate)
			v += math.Sin(2*math.Pi*8000*t) * 0.05
		}
		samples[i*2] = float32(v)
		samples[i*2+1] = float32(v)
	}

	return &Clip{
		Format:  Format{Codec: "kick", SampleRate: sampleRate, Channels: 2, BitDepth: 32},
		Samples: samples,
	}
}
