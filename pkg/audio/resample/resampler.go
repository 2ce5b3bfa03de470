// ABOUTME: Sample rate conversion for decoded clips
// ABOUTME: Fits clips to the rate the output device runs at using a polyphase resampler
package resample

import (
	"fmt"
	"math"

	"github.com/Resonate-Protocol/pulse/pkg/audio"
	resampler "github.com/tphakala/go-audio-resampler"
)

// Frames returns the frame count a clip of frames at inputRate has at outputRate
func Frames(frames, inputRate, outputRate int) int {
	if inputRate <= 0 || outputRate <= 0 {
		return 0
	}
	return int(math.Round(float64(frames) * float64(outputRate) / float64(inputRate)))
}

// Clip resamples a whole clip to the target rate.
// The result has exactly Frames(clip.Frames(), rate, targetRate) frames so the
// clip keeps its duration.
func Clip(clip *audio.Clip, targetRate int) (*audio.Clip, error) {
	if clip == nil || targetRate <= 0 || clip.Format.SampleRate == targetRate {
		return clip, nil
	}
	if clip.Format.SampleRate <= 0 || clip.Format.Channels <= 0 {
		return nil, fmt.Errorf("invalid clip format %dHz/%dch", clip.Format.SampleRate, clip.Format.Channels)
	}

	channels := clip.Format.Channels
	inFrames := clip.Frames()
	outFrames := Frames(inFrames, clip.Format.SampleRate, targetRate)
	out := make([]float32, outFrames*channels)

	plane := make([]float32, inFrames)
	for ch := 0; ch < channels; ch++ {
		for i := range plane {
			plane[i] = clip.Samples[i*channels+ch]
		}

		converted, err := resampler.ResampleMonoFloat32(plane,
			float64(clip.Format.SampleRate), float64(targetRate), resampler.QualityHigh)
		if err != nil {
			return nil, fmt.Errorf("failed to resample channel %d: %w", ch, err)
		}

		// Filter delay can leave the library's output a few frames off; pad or trim
		n := len(converted)
		if n > outFrames {
			n = outFrames
		}
		for i := 0; i < n; i++ {
			out[i*channels+ch] = converted[i]
		}
	}

	format := clip.Format
	format.SampleRate = targetRate
	return &audio.Clip{Format: format, Samples: out}, nil
}
