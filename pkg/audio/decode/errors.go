// ABOUTME: Decoder error values
// ABOUTME: Sentinel errors shared by all codecs
package decode

import "errors"

var (
	// ErrUnsupportedFormat indicates no decoder handles the asset
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrEmptyAsset indicates the asset decoded to zero frames
	ErrEmptyAsset = errors.New("asset contains no audio")

	// ErrNotWavFile indicates the data is not a RIFF/WAVE file
	ErrNotWavFile = errors.New("not a WAV file")

	// ErrNotAiffFile indicates the data is not an AIFF file
	ErrNotAiffFile = errors.New("not an AIFF file")

	// ErrNotOpusFile indicates the Ogg stream carries no OpusHead
	ErrNotOpusFile = errors.New("not an Ogg Opus file")
)
