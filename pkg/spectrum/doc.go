// ABOUTME: Spectrum sampling package
// ABOUTME: Converts the audio around the playback position into magnitude bins
// Package spectrum computes fixed-length frequency frames for visualizers.
//
// Each Sample call applies a Blackman window to the 2·Bins mono samples
// ending at the playback position and runs a real FFT. Bins are linear: bin
// i is centred at i·sampleRate/FFTSize Hz. Magnitudes are mapped from the
// [MinDecibels, MaxDecibels] range onto [0, 255], the same byte scale browser
// analysers use, so visual tuning carries over.
//
// Example:
//
//	s, _ := spectrum.New(spectrum.Config{Bins: 256})
//	frame := s.Sample(clock) // always 256 values
package spectrum
