// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides Output interface with oto, null and manual implementations
// Package output provides pull-based audio playback backends.
//
// A backend pulls interleaved float32 samples from an io.Reader (the
// playback clock) on its own schedule:
//   - Oto: real audio device via the oto library
//   - Null: discards audio at the real-time rate (headless runs)
//   - Manual: pulls only when Advance is called (offline rendering, tests)
//
// Example:
//
//	out := output.NewOto(0)
//	err := out.Open(48000, 2, clock)
package output
