// ABOUTME: Tests for audio types
// ABOUTME: Tests sample conversion, clip timing and mixing helpers
package audio

import (
	"math"
	"testing"
	"time"
)

func TestSampleFromInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int16
		expected float32
	}{
		{"zero", 0, 0},
		{"half", 16384, 0.5},
		{"negative half", -16384, -0.5},
		{"min", -32768, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestSampleToInt16Clips(t *testing.T) {
	tests := []struct {
		name     string
		input    float32
		expected int16
	}{
		{"zero", 0, 0},
		{"half", 0.5, 16384},
		{"over", 1.5, 32767},
		{"under", -1.5, -32768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleToInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleFromInt(t *testing.T) {
	tests := []struct {
		name     string
		sample   int
		bitDepth int
		expected float32
	}{
		{"8bit", 64, 8, 0.5},
		{"16bit", -16384, 16, -0.5},
		{"24bit", 4194304, 24, 0.5},
		{"unknown depth falls back to 16", 16384, 12, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromInt(tt.sample, tt.bitDepth)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestSampleFrom24Bit(t *testing.T) {
	if got := SampleFrom24Bit([3]byte{0x00, 0x00, 0x40}); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
	if got := SampleFrom24Bit([3]byte{0x00, 0x00, 0x80}); got != -1 {
		t.Errorf("expected -1, got %v", got)
	}
}

func TestClipDuration(t *testing.T) {
	clip := Silence(2*time.Second, 48000)

	if clip.Frames() != 96000 {
		t.Errorf("expected 96000 frames, got %d", clip.Frames())
	}
	if clip.Duration() != 2*time.Second {
		t.Errorf("expected 2s, got %v", clip.Duration())
	}

	var nilClip *Clip
	if nilClip.Duration() != 0 || nilClip.Frames() != 0 {
		t.Error("expected nil clip to have zero length")
	}
}

func TestFramesRoundTrip(t *testing.T) {
	d := 5 * time.Second
	frames := DurationToFrames(d, 44100)
	if frames != 220500 {
		t.Fatalf("expected 220500 frames, got %v", frames)
	}
	if back := FramesToDuration(frames, 44100); back != d {
		t.Errorf("expected %v, got %v", d, back)
	}
}

func TestMonoAt(t *testing.T) {
	clip := &Clip{
		Format:  Format{SampleRate: 8000, Channels: 2},
		Samples: []float32{1, 0, 0.5, 0.5},
	}

	if got := clip.MonoAt(0); got != 0.5 {
		t.Errorf("frame 0: expected 0.5, got %v", got)
	}
	if got := clip.MonoAt(1); got != 0.5 {
		t.Errorf("frame 1: expected 0.5, got %v", got)
	}
	if got := clip.MonoAt(2); got != 0 {
		t.Errorf("past end: expected 0, got %v", got)
	}
	if got := clip.MonoAt(-1); got != 0 {
		t.Errorf("before start: expected 0, got %v", got)
	}
}

func TestRemix(t *testing.T) {
	mono := &Clip{
		Format:  Format{SampleRate: 8000, Channels: 1},
		Samples: []float32{0.25, -0.25},
	}

	stereo := mono.Remix(2)
	if stereo.Format.Channels != 2 {
		t.Fatalf("expected 2 channels, got %d", stereo.Format.Channels)
	}
	want := []float32{0.25, 0.25, -0.25, -0.25}
	for i, v := range want {
		if stereo.Samples[i] != v {
			t.Errorf("sample %d: expected %v, got %v", i, v, stereo.Samples[i])
		}
	}

	if same := stereo.Remix(2); same != stereo {
		t.Error("expected Remix to return the clip unchanged when channels match")
	}
}

func TestToneAmplitude(t *testing.T) {
	clip := Tone(440, 100*time.Millisecond, 44100)

	var peak float64
	for _, s := range clip.Samples {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	if peak < 0.49 || peak > 0.5 {
		t.Errorf("expected peak near 0.5, got %v", peak)
	}
}

func TestKickPatternHasBeats(t *testing.T) {
	clip := KickPattern(120, 2*time.Second, 44100)

	// 120bpm = one beat every 22050 frames; the kick body is loud near the beat
	// start and the gap before the next beat is near silent.
	loud := math.Abs(float64(clip.MonoAt(100)))
	for i := 0; i < 400; i++ {
		loud = math.Max(loud, math.Abs(float64(clip.MonoAt(i))))
	}
	if loud < 0.3 {
		t.Errorf("expected a loud kick at beat start, peak=%v", loud)
	}

	quiet := math.Abs(float64(clip.MonoAt(22050 - 10)))
	if quiet > 0.01 {
		t.Errorf("expected near silence before next beat, got %v", quiet)
	}
}
