// ABOUTME: Timestamp scheduler for one-shot song-time callbacks
// ABOUTME: Fires on forward crossings, skips on forward jumps, re-arms on rewinds
package cue

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	ErrDuplicateEvent = errors.New("duplicate unfired event")
	ErrInvalidEvent   = errors.New("invalid event")
)

// Event is a snapshot of a registered cue
type Event struct {
	Name  string
	At    time.Duration
	Fired bool
}

type entry struct {
	Event
	callback func()
	seq      uint64
}

// Scheduler keeps named one-shot callbacks keyed to song time.
// Callbacks run outside the lock and may register or cancel events.
type Scheduler struct {
	mu     sync.Mutex
	events map[string]*entry
	seq    uint64
}

// New creates an empty scheduler
func New() *Scheduler {
	return &Scheduler{
		events: make(map[string]*entry),
	}
}

// RegisterOnce schedules callback to run when playback crosses at.
// A fired event with the same name is replaced.
func (s *Scheduler) RegisterOnce(name string, at time.Duration, callback func()) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidEvent)
	}
	if at < 0 {
		return fmt.Errorf("%w: %q at negative time %v", ErrInvalidEvent, name, at)
	}
	if callback == nil {
		return fmt.Errorf("%w: %q has no callback", ErrInvalidEvent, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.events[name]; ok && !existing.Fired {
		return fmt.Errorf("%w: %q", ErrDuplicateEvent, name)
	}

	s.seq++
	s.events[name] = &entry{
		Event:    Event{Name: name, At: at},
		callback: callback,
		seq:      s.seq,
	}
	return nil
}

// Tick observes normal playback from previous to current.
// Forward motion fires events in (previous, current]; backward motion
// re-arms events in (current, previous]. It returns the names fired.
func (s *Scheduler) Tick(current, previous time.Duration) []string {
	s.mu.Lock()

	if current < previous {
		s.rearmLocked(current, previous)
		s.mu.Unlock()
		return nil
	}

	var due []*entry
	for _, e := range s.events {
		if !e.Fired && previous < e.At && e.At <= current {
			e.Fired = true
			due = append(due, e)
		}
	}
	s.mu.Unlock()

	sortEntries(due)
	names := make([]string, 0, len(due))
	for _, e := range due {
		e.callback()
		names = append(names, e.Name)
	}
	return names
}

// Jump records a discontinuity such as a seek or loop wrap.
// Events skipped by a forward jump are marked fired silently; a backward
// jump re-arms the events it rewinds over.
func (s *Scheduler) Jump(from, to time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if to < from {
		s.rearmLocked(to, from)
		return
	}
	for _, e := range s.events {
		if !e.Fired && from < e.At && e.At <= to {
			e.Fired = true
		}
	}
}

func (s *Scheduler) rearmLocked(to, from time.Duration) {
	for _, e := range s.events {
		if to < e.At && e.At <= from {
			e.Fired = false
		}
	}
}

// Cancel removes a pending event. Absent or fired events are left alone.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.events[name]; ok && !e.Fired {
		delete(s.events, name)
	}
}

// Events returns all registered events ordered by time
func (s *Scheduler) Events() []Event {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.events))
	for _, e := range s.events {
		entries = append(entries, e)
	}
	sortEntries(entries)

	events := make([]Event, len(entries))
	for i, e := range entries {
		events[i] = e.Event
	}
	s.mu.Unlock()

	return events
}

// Len returns the number of registered events
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func sortEntries(entries []*entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].At != entries[j].At {
			return entries[i].At < entries[j].At
		}
		return entries[i].seq < entries[j].seq
	})
}
