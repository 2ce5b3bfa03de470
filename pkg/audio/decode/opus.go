// ABOUTME: Ogg Opus audio decoder
// ABOUTME: Decodes Ogg Opus assets to float samples via libopusfile
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/pulse/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// Opus always decodes at 48kHz
const opusSampleRate = 48000

// OpusDecoder decodes Ogg Opus audio
type OpusDecoder struct{}

// Decode converts Ogg Opus bytes to a clip
func (OpusDecoder) Decode(r io.Reader) (*audio.Clip, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading opus data: %w", err)
	}

	channels, err := opusChannels(data)
	if err != nil {
		return nil, err
	}

	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create opus stream: %w", err)
	}
	defer stream.Close()

	// 120ms at 48kHz is the largest Opus frame
	pcm16 := make([]int16, 5760*channels)
	var samples []float32
	for {
		n, err := stream.Read(pcm16)
		if n > 0 {
			for _, s := range pcm16[:n*channels] {
				samples = append(samples, audio.SampleFromInt16(s))
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("opus decode failed: %w", err)
		}
		if n == 0 {
			break
		}
	}

	return &audio.Clip{
		Format: audio.Format{
			Codec:      "opus",
			SampleRate: opusSampleRate,
			Channels:   channels,
			BitDepth:   16,
		},
		Samples: samples,
	}, nil
}

// opusChannels reads the output channel count from the OpusHead packet
func opusChannels(data []byte) (int, error) {
	idx := bytes.Index(data, []byte("OpusHead"))
	// magic(8) version(1) channels(1)
	if idx < 0 || idx+10 > len(data) {
		return 0, ErrNotOpusFile
	}
	channels := int(data[idx+9])
	if channels == 0 {
		return 0, fmt.Errorf("%w: zero channels", ErrNotOpusFile)
	}
	return channels, nil
}
