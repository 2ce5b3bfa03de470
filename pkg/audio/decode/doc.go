// ABOUTME: Audio decoder package for multiple codec support
// ABOUTME: Provides Decoder interface, registry and MP3/FLAC/WAV/AIFF/Vorbis/Opus decoders
// Package decode turns encoded audio assets into audio.Clip values.
//
// Supports: MP3, FLAC, WAV, AIFF, Ogg Vorbis, Ogg Opus
//
// Decoders read the whole asset and output interleaved float32 samples
// in [-1, 1]. The Registry selects a decoder by codec key; CodecForPath
// maps file extensions to keys.
//
// Example:
//
//	clip, err := decode.LoadFile("track.flac")
package decode
