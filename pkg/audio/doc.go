// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Clip types and sample conversion functions
// Package audio provides the decoded-audio types shared by the pulse driver.
//
// This package defines:
//   - Format: Describes a decoded stream (codec, sample rate, channels, source bit depth)
//   - Clip: A fully decoded asset as interleaved float32 samples in [-1, 1]
//
// It also provides sample conversion helpers, mono downmixing and a few
// synthetic clip generators (Tone, Silence, KickPattern).
//
// Example:
//
//	clip := audio.KickPattern(120, 10*time.Second, 44100)
//	fmt.Println(clip.Duration()) // 10s
package audio
