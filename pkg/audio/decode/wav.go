// ABOUTME: WAV audio decoder
// ABOUTME: Decodes RIFF/WAVE PCM assets via go-audio/wav
package decode

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/pulse/pkg/audio"
	"github.com/go-audio/wav"
)

// WAVDecoder decodes integer PCM WAV audio
type WAVDecoder struct{}

// Decode converts WAV bytes to a clip
func (WAVDecoder) Decode(r io.Reader) (*audio.Clip, error) {
	rs, err := asReadSeeker(r)
	if err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav pcm read failed: %w", err)
	}

	bitDepth := int(dec.BitDepth)
	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = audio.SampleFromInt(v, bitDepth)
	}

	return &audio.Clip{
		Format: audio.Format{
			Codec:      "wav",
			SampleRate: int(dec.SampleRate),
			Channels:   int(dec.NumChans),
			BitDepth:   bitDepth,
		},
		Samples: samples,
	}, nil
}

// asReadSeeker buffers r in memory unless it can already seek.
// go-audio decoders require io.ReadSeeker.
func asReadSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading audio data: %w", err)
	}
	return bytes.NewReader(data), nil
}
