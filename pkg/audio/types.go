// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, decoded clips and sample conversions
package audio

import "time"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes a decoded audio stream
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int // bit depth of the source before decoding to float
}

// Clip is a fully decoded audio asset.
// Samples are interleaved float32 values in [-1, 1].
type Clip struct {
	Format  Format
	Samples []float32
}

// Frames returns the number of sample frames in the clip
func (c *Clip) Frames() int {
	if c == nil || c.Format.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Format.Channels
}

// Duration returns the playback length at the clip's own sample rate
func (c *Clip) Duration() time.Duration {
	if c == nil || c.Format.SampleRate <= 0 {
		return 0
	}
	return FramesToDuration(float64(c.Frames()), c.Format.SampleRate)
}

// FramesToDuration converts a (possibly fractional) frame count to time
func FramesToDuration(frames float64, sampleRate int) time.Duration {
	return time.Duration(frames * float64(time.Second) / float64(sampleRate))
}

// DurationToFrames converts time to a fractional frame position
func DurationToFrames(d time.Duration, sampleRate int) float64 {
	return float64(d) * float64(sampleRate) / float64(time.Second)
}

// SampleFromInt16 converts a 16-bit sample to float
func SampleFromInt16(sample int16) float32 {
	return float32(sample) / 32768.0
}

// SampleToInt16 converts a float sample to 16-bit, clipping out-of-range values
func SampleToInt16(sample float32) int16 {
	v := sample * 32768.0
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// SampleFromInt converts an integer PCM sample of the given bit depth to float
func SampleFromInt(sample int, bitDepth int) float32 {
	var maxVal float32
	switch bitDepth {
	case 8:
		maxVal = 128.0
	case 16:
		maxVal = 32768.0
	case 24:
		maxVal = 8388608.0
	case 32:
		maxVal = 2147483648.0
	default:
		maxVal = 32768.0
	}
	return float32(sample) / maxVal
}

// SampleFrom24Bit converts 24-bit packed bytes (little-endian) to float
func SampleFrom24Bit(b [3]byte) float32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return SampleFromInt(int(val), 24)
}
