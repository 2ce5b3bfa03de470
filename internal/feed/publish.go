// ABOUTME: Converts driver ticks into feed messages
// ABOUTME: Rounds spectrum frames and emits kick, cue and state events
package feed

import (
	"math"
	"time"

	"github.com/Resonate-Protocol/pulse/pkg/clock"
	"github.com/Resonate-Protocol/pulse/pkg/pulse"
)

// Broadcaster is satisfied by *Hub
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// Publisher throttles and forwards driver ticks
type Publisher struct {
	out        Broadcaster
	frameEvery int
	count      int
	actions    map[string]string
}

// NewPublisher forwards every frameEvery-th spectrum frame (minimum 1).
// Kicks and cues are always forwarded.
func NewPublisher(out Broadcaster, frameEvery int) *Publisher {
	if frameEvery < 1 {
		frameEvery = 1
	}
	return &Publisher{
		out:        out,
		frameEvery: frameEvery,
		actions:    make(map[string]string),
	}
}

// SetAction attaches an action label to cue messages for name
func (p *Publisher) SetAction(name, action string) {
	p.actions[name] = action
}

// PublishTick sends the messages for one driver tick
func (p *Publisher) PublishTick(tick pulse.Tick) error {
	pos := seconds(tick.Position)

	if p.count%p.frameEvery == 0 {
		if err := p.out.Broadcast(TypeFrame, Frame{Position: pos, Spectrum: Quantize(tick.Spectrum)}); err != nil {
			return err
		}
	}
	p.count++

	if tick.Kicked {
		if err := p.out.Broadcast(TypeKick, Kick{Position: pos, Energy: tick.Energy}); err != nil {
			return err
		}
	}
	if tick.Released {
		if err := p.out.Broadcast(TypeOffKick, Kick{Position: pos, Energy: tick.Energy}); err != nil {
			return err
		}
	}
	for _, name := range tick.Fired {
		if err := p.out.Broadcast(TypeCue, Cue{Name: name, Position: pos, Action: p.actions[name]}); err != nil {
			return err
		}
	}
	return nil
}

// PublishState sends the playback state
func (p *Publisher) PublishState(state clock.State) error {
	return p.out.Broadcast(TypeState, State{
		Position: seconds(state.Position),
		Duration: seconds(state.Duration),
		Playing:  state.Playing,
		Loop:     state.Loop,
		Volume:   state.Volume,
	})
}

// Quantize rounds spectrum values to integers in [0, 255]
func Quantize(frame []float64) []int {
	out := make([]int, len(frame))
	for i, v := range frame {
		q := int(math.Round(v))
		if q < 0 {
			q = 0
		} else if q > 255 {
			q = 255
		}
		out[i] = q
	}
	return out
}

func seconds(d time.Duration) float64 {
	return d.Seconds()
}
