// ABOUTME: Channel mixing helpers for decoded clips
// ABOUTME: Downmixes frames to mono and remaps clips to a device channel count
package audio

// MonoAt returns the average of all channels of frame i.
// Out-of-range frames read as silence.
func (c *Clip) MonoAt(i int) float32 {
	channels := c.Format.Channels
	if i < 0 || channels <= 0 {
		return 0
	}
	base := i * channels
	if base+channels > len(c.Samples) {
		return 0
	}

	switch channels {
	case 1:
		return c.Samples[base]
	case 2:
		return (c.Samples[base] + c.Samples[base+1]) * 0.5
	default:
		sum := float32(0)
		for ch := 0; ch < channels; ch++ {
			sum += c.Samples[base+ch]
		}
		return sum / float32(channels)
	}
}

// Remix returns a copy of the clip with the given channel count.
// Mono sources are duplicated; any other mismatch goes through a mono downmix.
func (c *Clip) Remix(channels int) *Clip {
	if channels <= 0 || channels == c.Format.Channels {
		return c
	}

	frames := c.Frames()
	out := make([]float32, frames*channels)
	for f := 0; f < frames; f++ {
		v := c.MonoAt(f)
		for ch := 0; ch < channels; ch++ {
			out[f*channels+ch] = v
		}
	}

	format := c.Format
	format.Channels = channels
	return &Clip{Format: format, Samples: out}
}
