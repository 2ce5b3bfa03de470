// ABOUTME: Feed message type definitions
// ABOUTME: JSON envelopes streamed to remote renderers
package feed

import "encoding/json"

// Message types
const (
	TypeHello   = "hello"
	TypeFrame   = "frame"
	TypeKick    = "kick"
	TypeOffKick = "offkick"
	TypeCue     = "cue"
	TypeState   = "state"
)

// Message is the top-level wrapper for all feed messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Envelope is a received message with its payload left undecoded
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decode unmarshals the payload into v
func (e Envelope) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Hello is sent once when a connection opens
type Hello struct {
	ConnectionID string `json:"connection_id"`
	DriverID     string `json:"driver_id"`
	Name         string `json:"name"`
	Version      string `json:"version"`
	Bins         int    `json:"bins"`
}

// Frame carries one spectrum frame rounded to the 0-255 scale.
// Positions are in seconds.
type Frame struct {
	Position float64 `json:"position"`
	Spectrum []int   `json:"spectrum"`
}

// Kick describes a kick or off-kick edge
type Kick struct {
	Position float64 `json:"position"`
	Energy   float64 `json:"energy"`
}

// Cue reports a fired cue
type Cue struct {
	Name     string  `json:"name"`
	Position float64 `json:"position"`
	Action   string  `json:"action,omitempty"`
}

// State is the playback state
type State struct {
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
	Playing  bool    `json:"playing"`
	Loop     bool    `json:"loop"`
	Volume   float64 `json:"volume"`
}
