// ABOUTME: Tests for the feed hub, publisher and client
// ABOUTME: Uses httptest WebSocket servers and a recording broadcaster
package feed

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Resonate-Protocol/pulse/pkg/clock"
	"github.com/Resonate-Protocol/pulse/pkg/pulse"
)

func startHub(t *testing.T, config Config) (*Hub, string) {
	t.Helper()
	hub := NewHub(config)
	server := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return hub, strings.TrimPrefix(server.URL, "http://")
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClientReceivesHello(t *testing.T) {
	_, addr := startHub(t, Config{Name: "stage", DriverID: "driver-1", Bins: 256})

	c, err := Dial(context.Background(), addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()

	hello := c.Hello()
	if hello.ConnectionID == "" {
		t.Error("expected a connection id")
	}
	if hello.Name != "stage" || hello.DriverID != "driver-1" || hello.Bins != 256 {
		t.Errorf("unexpected hello: %+v", hello)
	}
}

func TestConnectionsGetDistinctIDs(t *testing.T) {
	_, addr := startHub(t, Config{})

	a, err := Dial(context.Background(), addr)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := Dial(context.Background(), addr)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if a.Hello().ConnectionID == b.Hello().ConnectionID {
		t.Error("connections should have distinct ids")
	}
}

func TestBroadcastReachesClient(t *testing.T) {
	hub, addr := startHub(t, Config{})

	c, err := Dial(context.Background(), addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	waitForClients(t, hub, 1)

	if err := hub.Broadcast(TypeKick, Kick{Position: 1.5, Energy: 200}); err != nil {
		t.Fatal(err)
	}

	env, err := c.Next()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if env.Type != TypeKick {
		t.Fatalf("expected kick, got %s", env.Type)
	}
	var kick Kick
	if err := env.Decode(&kick); err != nil {
		t.Fatal(err)
	}
	if kick.Position != 1.5 || kick.Energy != 200 {
		t.Errorf("unexpected kick: %+v", kick)
	}
}

func TestClientDisconnectIsRemoved(t *testing.T) {
	hub, addr := startHub(t, Config{})

	c, err := Dial(context.Background(), addr)
	if err != nil {
		t.Fatal(err)
	}
	waitForClients(t, hub, 1)

	c.Close()
	waitForClients(t, hub, 0)
}

func TestBroadcastDropsForFullQueue(t *testing.T) {
	hub := NewHub(Config{})
	hub.clients["slow"] = &conn{id: "slow", send: make(chan []byte, 1)}

	for i := 0; i < 3; i++ {
		if err := hub.Broadcast(TypeState, State{}); err != nil {
			t.Fatal(err)
		}
	}

	if hub.Dropped() != 2 {
		t.Errorf("expected 2 dropped messages, got %d", hub.Dropped())
	}
}

type recordingBroadcaster struct {
	types    []string
	payloads []interface{}
}

func (r *recordingBroadcaster) Broadcast(msgType string, payload interface{}) error {
	r.types = append(r.types, msgType)
	r.payloads = append(r.payloads, payload)
	return nil
}

func TestPublisherForwardsTick(t *testing.T) {
	rec := &recordingBroadcaster{}
	p := NewPublisher(rec, 2)
	p.SetAction("drop", "materials:neon")

	tick := pulse.Tick{
		Position: 1500 * time.Millisecond,
		Spectrum: []float64{0, 12.4, 300, -1},
		Energy:   210,
		Kicked:   true,
		Fired:    []string{"drop"},
	}
	if err := p.PublishTick(tick); err != nil {
		t.Fatal(err)
	}

	want := []string{TypeFrame, TypeKick, TypeCue}
	if strings.Join(rec.types, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, rec.types)
	}

	frame := rec.payloads[0].(Frame)
	if frame.Position != 1.5 {
		t.Errorf("expected position 1.5, got %v", frame.Position)
	}
	if got := frame.Spectrum; got[0] != 0 || got[1] != 12 || got[2] != 255 || got[3] != 0 {
		t.Errorf("unexpected quantized spectrum %v", got)
	}
	if c := rec.payloads[2].(Cue); c.Name != "drop" || c.Action != "materials:neon" {
		t.Errorf("unexpected cue payload %+v", c)
	}

	// Second tick is throttled
	rec.types = nil
	if err := p.PublishTick(pulse.Tick{Released: true}); err != nil {
		t.Fatal(err)
	}
	if strings.Join(rec.types, ",") != TypeOffKick {
		t.Errorf("expected only offkick, got %v", rec.types)
	}
}

func TestPublishState(t *testing.T) {
	rec := &recordingBroadcaster{}
	p := NewPublisher(rec, 1)

	err := p.PublishState(clock.State{Position: 2 * time.Second, Duration: 10 * time.Second, Playing: true, Volume: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	state := rec.payloads[0].(State)
	if state.Position != 2 || state.Duration != 10 || !state.Playing || state.Volume != 0.5 {
		t.Errorf("unexpected state %+v", state)
	}
}
