// ABOUTME: Audio resampling package
// ABOUTME: Converts whole clips between sample rates
// Package resample provides sample rate conversion for decoded clips.
//
// The clock uses it when the output device is already running at a rate that
// differs from the asset's native rate.
//
// Example:
//
//	fitted, err := resample.Clip(clip, 48000)
package resample
