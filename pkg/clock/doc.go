// ABOUTME: Playback clock package
// ABOUTME: Single source of song time for spectrum, kick and cue components
// Package clock owns a decoded clip and the authoritative playback position.
//
// The clock is the io.Reader an output device pulls from, so position only
// advances as audio is actually consumed. Seeks and loop wraps are recorded
// as jumps so schedulers can tell them apart from normal playback.
//
// Example:
//
//	c, _ := clock.New(clock.Config{Output: output.NewOto(0)})
//	c.Play() // queued until the clip is ready
//	if err := c.Load(clip); err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(c.CurrentTime())
package clock
