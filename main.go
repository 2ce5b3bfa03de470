// ABOUTME: Entry point for the pulse visual driver
// ABOUTME: Parses CLI flags, plays a track and drives the TUI and network feed
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/pulse/internal/assets"
	"github.com/Resonate-Protocol/pulse/internal/cuesheet"
	"github.com/Resonate-Protocol/pulse/internal/discovery"
	"github.com/Resonate-Protocol/pulse/internal/feed"
	"github.com/Resonate-Protocol/pulse/internal/ui"
	"github.com/Resonate-Protocol/pulse/internal/version"
	"github.com/Resonate-Protocol/pulse/pkg/audio"
	"github.com/Resonate-Protocol/pulse/pkg/audio/output"
	"github.com/Resonate-Protocol/pulse/pkg/onset"
	"github.com/Resonate-Protocol/pulse/pkg/pulse"
)

var (
	assetSrc  = flag.String("asset", "", "Audio file path or http(s) URL (default: built-in kick pattern)")
	cueFile   = flag.String("cues", "", "Cue sheet JSON file")
	loop      = flag.Bool("loop", false, "Loop playback")
	volume    = flag.Float64("volume", 1, "Initial volume (0-1)")
	bins      = flag.Int("bins", 256, "Spectrum bins (power of two)")
	kickLow   = flag.Float64("kick-low", 40, "Kick band low edge in Hz")
	kickHigh  = flag.Float64("kick-high", 150, "Kick band high edge in Hz")
	threshold = flag.Float64("threshold", 180, "Kick threshold on the 0-255 spectrum scale")
	decay     = flag.Duration("decay", 150*time.Millisecond, "Kick decay")
	aggregate = flag.String("aggregate", "mean", "Kick band aggregation: mean, sum or peak")
	bpm       = flag.Float64("bpm", 120, "Tempo of the built-in kick pattern")
	fps       = flag.Int("fps", 60, "Frames per second")
	port      = flag.Int("port", 8928, "Feed port (0 disables the feed)")
	frameSkip = flag.Int("feed-every", 2, "Send every Nth spectrum frame to feed clients")
	name      = flag.String("name", "", "Feed name for mDNS (default: hostname-pulse)")
	cacheDir  = flag.String("cache-dir", "", "Download cache for remote assets")
	logFile   = flag.String("log-file", "pulse.log", "Log file path")
	noTUI     = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pulse: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	feedName := *name
	if feedName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		feedName = fmt.Sprintf("%s-pulse", hostname)
	}

	log.Printf("Starting %s: %s", version.String(), feedName)

	driver, err := newDriver(nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := driver.Close(); err != nil {
			log.Printf("Error closing driver: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	track, loaded, err := loadTrack(ctx, driver)
	if err != nil {
		return fmt.Errorf("failed to load track: %w", err)
	}

	// Network feed
	var hub *feed.Hub
	var publisher *feed.Publisher
	if *port > 0 {
		hub = feed.NewHub(feed.Config{
			Name:     feedName,
			DriverID: driver.ID(),
			Version:  version.Version,
			Bins:     driver.Bins(),
		})
		publisher = feed.NewPublisher(hub, *frameSkip)

		mux := http.NewServeMux()
		mux.Handle(feed.Path, hub)
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", *port),
			Handler: mux,
		}
		go func() {
			log.Printf("Feed listening on %s%s", srv.Addr, feed.Path)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Feed server error: %v", err)
			}
		}()
		defer func() {
			hub.Close()
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()

		disc := discovery.NewManager(discovery.Config{
			ServiceName: feedName,
			Port:        *port,
			Path:        feed.Path,
		})
		if err := disc.Advertise(); err != nil {
			log.Printf("mDNS advertisement failed: %v", err)
		}
		defer disc.Stop()
	}

	// Cue sheet
	if *cueFile != "" {
		sheet, err := cuesheet.Load(*cueFile)
		if err != nil {
			return fmt.Errorf("failed to load cue sheet: %w", err)
		}
		for _, c := range sheet.Cues {
			if publisher != nil {
				publisher.SetAction(c.Name, c.Action)
			}
		}
		err = sheet.Apply(driver, func(c cuesheet.Cue) {
			log.Printf("Cue %s at %.2fs: %s", c.Name, c.At, c.Action)
		})
		if err != nil {
			return fmt.Errorf("failed to apply cue sheet: %w", err)
		}
		log.Printf("Loaded %d cues from %s", len(sheet.Cues), *cueFile)
	}

	if !useTUI {
		driver.OnKick(func(e onset.Edge) {
			log.Printf("Kick at %v (energy %.0f)", e.At.Round(time.Millisecond), e.Energy)
		})
	}

	// TUI setup
	var tui *ui.TUI
	var controls *ui.Controls
	if useTUI {
		controls = ui.NewControls()
		tui = ui.NewTUI(track, controls)
		go func() {
			if err := tui.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
	}

	// Playback starts as soon as the track is decoded
	driver.Play()

	stop := make(chan struct{})
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		frameLoop(driver, frameDeps{
			publisher: publisher,
			hub:       hub,
			controls:  controls,
			tui:       tui,
		}, *fps, stop)
	}()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var quit <-chan struct{}
	if controls != nil {
		quit = controls.Quit
	}

	exitErr := waitForExit(loaded, quit, sigChan)
	if tui != nil && !errors.Is(exitErr, errQuit) {
		tui.Stop()
	}

	close(stop)
	<-loopDone
	log.Printf("Driver stopped")

	if errors.Is(exitErr, errQuit) || errors.Is(exitErr, errSignal) {
		return nil
	}
	return exitErr
}

var (
	errQuit   = errors.New("quit from TUI")
	errSignal = errors.New("shutdown signal")
)

// waitForExit blocks until the user quits, a signal arrives or the track
// fails to load. A successful load keeps waiting.
func waitForExit(loaded <-chan error, quit <-chan struct{}, sig <-chan os.Signal) error {
	for {
		select {
		case err := <-loaded:
			if err != nil {
				log.Printf("Track failed to load: %v", err)
				return err
			}
			loaded = nil
		case <-quit:
			log.Printf("Received quit signal from TUI")
			return errQuit
		case <-sig:
			log.Printf("Shutdown signal received")
			return errSignal
		}
	}
}

// newDriver builds the driver from flags. A nil out uses the default device.
func newDriver(out output.Output) (*pulse.Driver, error) {
	agg, err := onset.ParseAggregate(*aggregate)
	if err != nil {
		return nil, fmt.Errorf("invalid aggregate: %w", err)
	}

	driver, err := pulse.New(pulse.Config{
		Bins: *bins,
		Kick: pulse.KickConfig{
			LowHz:     *kickLow,
			HighHz:    *kickHigh,
			Threshold: *threshold,
			Decay:     *decay,
			Aggregate: agg,
		},
		Loop:   *loop,
		Output: out,
		OnError: func(err error) {
			log.Printf("Driver error: %v", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	// Config treats zero as the default, so -volume 0 has to go through the setter
	if err := driver.SetVolume(*volume); err != nil {
		_ = driver.Close()
		return nil, err
	}
	return driver, nil
}

// loadTrack installs the requested asset, or the built-in kick pattern.
// File assets decode in the background; controls queue until ready and the
// returned channel reports the outcome. It is nil for the built-in pattern.
func loadTrack(ctx context.Context, driver *pulse.Driver) (string, <-chan error, error) {
	if *assetSrc == "" {
		log.Printf("No asset given, playing built-in %.0f BPM kick pattern", *bpm)
		clip := audio.KickPattern(*bpm, 30*time.Second, audio.DefaultSampleRate)
		if err := driver.Load(clip); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("kick pattern %.0f BPM", *bpm), nil, nil
	}

	fetcher, err := assets.NewFetcher(*cacheDir)
	if err != nil {
		return "", nil, err
	}

	local, err := fetcher.Resolve(ctx, *assetSrc)
	if err != nil {
		return "", nil, err
	}

	log.Printf("Loading %s", local)
	return path.Base(*assetSrc), driver.LoadAsync(ctx, local), nil
}

type frameDeps struct {
	publisher *feed.Publisher
	hub       *feed.Hub
	controls  *ui.Controls
	tui       *ui.TUI
}

// frameLoop ticks the driver at the frame rate and applies UI commands
// between frames so they never race a tick.
func frameLoop(driver *pulse.Driver, deps frameDeps, fps int, stop <-chan struct{}) {
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	stateTicker := time.NewTicker(time.Second)
	defer stateTicker.Stop()

	var commands chan ui.Command
	if deps.controls != nil {
		commands = deps.controls.Commands
	}

	for {
		select {
		case <-stop:
			return

		case cmd := <-commands:
			applyCommand(driver, cmd)

		case <-stateTicker.C:
			if deps.publisher != nil {
				if err := deps.publisher.PublishState(driver.State()); err != nil {
					log.Printf("Failed to publish state: %v", err)
				}
			}

		case <-ticker.C:
			tick := driver.Tick()

			if deps.publisher != nil {
				if err := deps.publisher.PublishTick(tick); err != nil {
					log.Printf("Failed to publish tick: %v", err)
				}
			}

			if deps.tui != nil {
				deps.tui.Update(statusFor(driver, tick, deps.hub))
			}
		}
	}
}

func statusFor(driver *pulse.Driver, tick pulse.Tick, hub *feed.Hub) ui.StatusMsg {
	state := driver.State()
	kick := driver.Kick().State()

	clients := 0
	if hub != nil {
		clients = hub.Clients()
	}

	return ui.StatusMsg{
		Position:    tick.Position,
		Duration:    state.Duration,
		Playing:     tick.Playing,
		Loop:        state.Loop,
		Volume:      state.Volume,
		Spectrum:    tick.Spectrum,
		Energy:      tick.Energy,
		Threshold:   kick.Threshold,
		KickEnabled: kick.Enabled,
		Kicked:      tick.Kicked,
		Fired:       tick.Fired,
		FeedClients: clients,
	}
}

// applyCommand runs a UI command against the driver
func applyCommand(driver *pulse.Driver, cmd ui.Command) {
	switch cmd.Kind {
	case ui.TogglePlay:
		if driver.IsPlaying() {
			driver.Pause()
		} else {
			driver.Play()
		}

	case ui.Seek:
		target := driver.CurrentTime() + time.Duration(cmd.Amount*float64(time.Second))
		if target < 0 {
			target = 0
		}
		driver.Seek(target)

	case ui.Volume:
		if err := driver.SetVolume(clamp(driver.Volume()+cmd.Amount, 0, 1)); err != nil {
			log.Printf("Failed to set volume: %v", err)
		}

	case ui.Threshold:
		kick := driver.Kick()
		next := clamp(kick.State().Threshold+cmd.Amount, 0, 255)
		if err := kick.SetThreshold(next); err != nil {
			log.Printf("Failed to set threshold: %v", err)
			return
		}
		log.Printf("Kick threshold: %.0f", next)

	case ui.ToggleKick:
		if driver.Kick().Enabled() {
			driver.Kick().Disable()
		} else {
			driver.Kick().Enable()
		}

	case ui.ToggleLoop:
		driver.SetLoop(!driver.State().Loop)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
