// ABOUTME: Public driver package for audio-synchronized visuals
// ABOUTME: Exposes spectrum, kick and timestamp cues behind one frame tick
// Package pulse drives visuals from a playing audio clip.
//
// A Driver owns a playback clock, a spectrum sampler, a kick detector and a
// cue scheduler. The host calls Tick once per visual frame; the driver polls
// the clock, samples the spectrum, feeds the kick band to the detector and
// fires any cues playback crossed since the previous frame. Callbacks run
// synchronously inside Tick on the caller's goroutine.
//
// Example:
//
//	d, err := pulse.New(pulse.Config{Loop: true})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer d.Close()
//
//	d.OnKick(func(e onset.Edge) { scene.Flash() })
//	d.OnceAt("neon", 12500*time.Millisecond, scene.SwapMaterials)
//	if err := d.LoadFile(ctx, "track.mp3"); err != nil {
//		log.Fatal(err)
//	}
//	d.Play()
//
//	for range time.Tick(time.Second / 60) {
//		tick := d.Tick()
//		scene.Render(tick.Spectrum)
//	}
package pulse
