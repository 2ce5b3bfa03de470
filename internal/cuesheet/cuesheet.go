// ABOUTME: Cue sheet loading for timestamped scene actions
// ABOUTME: Parses JSON cue lists and registers them with a driver
package cuesheet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"time"
)

var ErrInvalidSheet = errors.New("invalid cue sheet")

// Sheet is the on-disk cue list
type Sheet struct {
	Cues []Cue `json:"cues"`
}

// Cue binds an action to a song time in seconds
type Cue struct {
	Name   string  `json:"name"`
	At     float64 `json:"at"`
	Action string  `json:"action,omitempty"`
}

// Time returns the cue time as a duration
func (c Cue) Time() time.Duration {
	return time.Duration(c.At * float64(time.Second))
}

// Kind returns the action prefix before the first colon ("materials" in "materials:neon")
func (c Cue) Kind() string {
	kind, _, _ := strings.Cut(c.Action, ":")
	return kind
}

// Arg returns the action argument after the first colon
func (c Cue) Arg() string {
	_, arg, _ := strings.Cut(c.Action, ":")
	return arg
}

// Registrar accepts one-shot cues; *pulse.Driver satisfies it
type Registrar interface {
	OnceAt(name string, at time.Duration, cb func()) error
}

// Parse reads and validates a cue sheet
func Parse(r io.Reader) (*Sheet, error) {
	var sheet Sheet
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sheet); err != nil {
		return nil, fmt.Errorf("failed to parse cue sheet: %w", err)
	}
	if err := sheet.Validate(); err != nil {
		return nil, err
	}
	return &sheet, nil
}

// Load reads a cue sheet from disk
func Load(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cue sheet: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Validate checks names are unique and times are usable
func (s *Sheet) Validate() error {
	seen := make(map[string]bool, len(s.Cues))
	for i, c := range s.Cues {
		if c.Name == "" {
			return fmt.Errorf("%w: cue %d has no name", ErrInvalidSheet, i)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate cue %q", ErrInvalidSheet, c.Name)
		}
		if c.At < 0 || math.IsNaN(c.At) || math.IsInf(c.At, 0) {
			return fmt.Errorf("%w: cue %q has invalid time %v", ErrInvalidSheet, c.Name, c.At)
		}
		seen[c.Name] = true
	}
	return nil
}

// Sorted returns the cues ordered by time
func (s *Sheet) Sorted() []Cue {
	cues := append([]Cue(nil), s.Cues...)
	sort.SliceStable(cues, func(i, j int) bool {
		return cues[i].At < cues[j].At
	})
	return cues
}

// Apply registers every cue; handle runs when a cue fires
func (s *Sheet) Apply(r Registrar, handle func(Cue)) error {
	for _, c := range s.Cues {
		c := c
		if err := r.OnceAt(c.Name, c.Time(), func() { handle(c) }); err != nil {
			return fmt.Errorf("failed to register cue %q: %w", c.Name, err)
		}
	}
	return nil
}
