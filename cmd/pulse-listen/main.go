// ABOUTME: Entry point for the pulse feed listener
// ABOUTME: Finds a feed via mDNS (or -addr) and prints kicks and cues
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/pulse/internal/discovery"
	"github.com/Resonate-Protocol/pulse/internal/feed"
)

var (
	addr     = flag.String("addr", "", "Manual feed address host:port (skip mDNS)")
	timeout  = flag.Duration("timeout", 10*time.Second, "How long to wait for mDNS discovery")
	frames   = flag.Bool("frames", false, "Print spectrum frames as bars")
	logFile  = flag.String("log-file", "pulse-listen.log", "Log file path")
	barWidth = flag.Int("width", 64, "Width of printed spectrum bars")
)

func main() {
	flag.Parse()

	// Set up logging (both file and console)
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	log.SetOutput(io.MultiWriter(os.Stdout, f))

	feedAddr := *addr
	if feedAddr == "" {
		log.Printf("Searching for feeds...")
		disc := discovery.NewManager(discovery.Config{})
		if err := disc.Browse(); err != nil {
			log.Fatalf("Failed to browse: %v", err)
		}

		select {
		case info := <-disc.Feeds():
			feedAddr = info.Addr()
			log.Printf("Using feed %s at %s", info.Name, feedAddr)
		case <-time.After(*timeout):
			log.Fatalf("No feed found after %v", *timeout)
		}
		disc.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := feed.Dial(ctx, feedAddr)
	cancel()
	if err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	defer client.Close()

	hello := client.Hello()
	log.Printf("Feed %s (driver %s, v%s, %d bins)", hello.Name, hello.DriverID, hello.Version, hello.Bins)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			env, err := client.Next()
			if err != nil {
				log.Printf("Feed closed: %v", err)
				return
			}
			if err := printMessage(env); err != nil {
				log.Printf("Bad %s message: %v", env.Type, err)
			}
		}
	}()

	select {
	case <-sigChan:
		log.Printf("Shutdown signal received")
	case <-done:
	}
}

func printMessage(env feed.Envelope) error {
	switch env.Type {
	case feed.TypeKick, feed.TypeOffKick:
		var k feed.Kick
		if err := env.Decode(&k); err != nil {
			return err
		}
		log.Printf("%-7s %7.2fs energy %.0f", env.Type, k.Position, k.Energy)

	case feed.TypeCue:
		var c feed.Cue
		if err := env.Decode(&c); err != nil {
			return err
		}
		log.Printf("cue     %7.2fs %s %s", c.Position, c.Name, c.Action)

	case feed.TypeState:
		var s feed.State
		if err := env.Decode(&s); err != nil {
			return err
		}
		log.Printf("state   %7.2fs / %.2fs playing=%v loop=%v volume=%.2f",
			s.Position, s.Duration, s.Playing, s.Loop, s.Volume)

	case feed.TypeFrame:
		if !*frames {
			return nil
		}
		var fr feed.Frame
		if err := env.Decode(&fr); err != nil {
			return err
		}
		fmt.Printf("%7.2fs %s\n", fr.Position, bars(fr.Spectrum, *barWidth))
	}
	return nil
}

// bars renders a frame as a single row of shaded blocks
func bars(spectrum []int, width int) string {
	if len(spectrum) == 0 || width <= 0 {
		return ""
	}
	shades := []rune(" ░▒▓█")

	var b strings.Builder
	for c := 0; c < width; c++ {
		start := c * len(spectrum) / width
		end := (c + 1) * len(spectrum) / width
		if end <= start {
			end = start + 1
		}
		if end > len(spectrum) {
			end = len(spectrum)
		}
		peak := 0
		for _, v := range spectrum[start:end] {
			if v > peak {
				peak = v
			}
		}
		b.WriteRune(shades[peak*(len(shades)-1)/255])
	}
	return b.String()
}
