// ABOUTME: Decoder interface and codec registry
// ABOUTME: Maps file extensions to whole-asset decoders producing float clips
package decode

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Resonate-Protocol/pulse/pkg/audio"
)

// Decoder decodes a complete encoded asset into a clip
type Decoder interface {
	Decode(r io.Reader) (*audio.Clip, error)
}

// Registry holds decoders by codec key (e.g. "wav", "mp3", "vorbis")
type Registry struct {
	codecs map[string]Decoder
	mu     sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
	}
}

// DefaultRegistry returns a registry with every built-in codec
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("mp3", MP3Decoder{})
	r.Register("flac", FLACDecoder{})
	r.Register("wav", WAVDecoder{})
	r.Register("aiff", AIFFDecoder{})
	r.Register("vorbis", VorbisDecoder{})
	r.Register("opus", OpusDecoder{})
	return r
}

// Register adds or replaces the decoder for a codec
func (r *Registry) Register(codec string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.codecs[codec] = d
}

// Get returns the decoder for a codec
func (r *Registry) Get(codec string) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.codecs[codec]
	return d, ok
}

// Decode decodes r with the decoder registered for codec
func (r *Registry) Decode(codec string, src io.Reader) (*audio.Clip, error) {
	d, ok := r.Get(codec)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, codec)
	}

	clip, err := d.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("%s decode failed: %w", codec, err)
	}
	if clip.Frames() == 0 {
		return nil, fmt.Errorf("%s: %w", codec, ErrEmptyAsset)
	}
	clip.Format.Codec = codec
	return clip, nil
}

// LoadFile decodes a local file, choosing the codec from its extension
func (r *Registry) LoadFile(path string) (*audio.Clip, error) {
	codec, err := CodecForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	clip, err := r.Decode(codec, f)
	if err != nil {
		return nil, err
	}

	log.Printf("Loaded %s: %s (%dHz, %d channels, %v)",
		codec, filepath.Base(path), clip.Format.SampleRate, clip.Format.Channels, clip.Duration())
	return clip, nil
}

// CodecForPath maps a file extension to a codec key
func CodecForPath(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		return "mp3", nil
	case ".flac":
		return "flac", nil
	case ".wav", ".wave":
		return "wav", nil
	case ".aif", ".aiff":
		return "aiff", nil
	case ".ogg", ".oga":
		return "vorbis", nil
	case ".opus":
		return "opus", nil
	default:
		return "", fmt.Errorf("%w: %q (supported: .mp3, .flac, .wav, .aiff, .ogg, .opus)", ErrUnsupportedFormat, ext)
	}
}

// LoadFile decodes a local file with the default registry
func LoadFile(path string) (*audio.Clip, error) {
	return DefaultRegistry().LoadFile(path)
}
