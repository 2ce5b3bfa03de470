// ABOUTME: Cue scheduling package
// ABOUTME: Binds scene transitions to absolute song timestamps
// Package cue runs one-shot callbacks when playback crosses a song time.
//
// Tick handles continuous playback and Jump handles seeks and loop wraps,
// so a large seek never releases a burst of stale callbacks while a rewind
// lets events fire again on the next pass.
//
// Example:
//
//	s := cue.New()
//	s.RegisterOnce("drop", 42*time.Second, swapMaterials)
//	s.Tick(now, prev)
package cue
