// ABOUTME: Kick detection package
// ABOUTME: Emits binary rhythmic pulses from low-frequency band energy
// Package onset detects "kicks": moments when the energy of a spectrum band
// crosses a threshold.
//
// The detector is a two-state hysteresis machine rather than a general onset
// detector. Idle moves to Triggered when band energy reaches the threshold;
// Triggered returns to Idle when energy drops below it or the decay time has
// passed. Disable freezes the machine in place.
//
// Example:
//
//	d, _ := onset.New(onset.Config{
//		LowBin: 1, HighBin: 3, Threshold: 180, Decay: 150 * time.Millisecond,
//		OnKick: func(e onset.Edge) { flash() },
//	})
//	d.Tick(frame, clock.CurrentTime())
package onset
