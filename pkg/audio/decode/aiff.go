// ABOUTME: AIFF audio decoder
// ABOUTME: Decodes AIFF PCM assets via go-audio/aiff
package decode

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/pulse/pkg/audio"
	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
)

// AIFFDecoder decodes AIFF audio
type AIFFDecoder struct{}

// Decode converts AIFF bytes to a clip
func (AIFFDecoder) Decode(r io.Reader) (*audio.Clip, error) {
	rs, err := asReadSeeker(r)
	if err != nil {
		return nil, err
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()

	format := dec.Format()
	if format == nil || format.NumChannels <= 0 {
		return nil, fmt.Errorf("%w: missing COMM chunk", ErrNotAiffFile)
	}
	bitDepth := int(dec.BitDepth)

	intBuf := &goaudio.IntBuffer{
		Data:   make([]int, 4096*format.NumChannels),
		Format: format,
	}

	var samples []float32
	for {
		n, err := dec.PCMBuffer(intBuf)
		if n == 0 {
			if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("aiff pcm read failed: %w", err)
			}
			break
		}
		for _, v := range intBuf.Data[:n] {
			samples = append(samples, audio.SampleFromInt(v, bitDepth))
		}
		if err != nil {
			break
		}
	}

	return &audio.Clip{
		Format: audio.Format{
			Codec:      "aiff",
			SampleRate: format.SampleRate,
			Channels:   format.NumChannels,
			BitDepth:   bitDepth,
		},
		Samples: samples,
	}, nil
}
