// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests manager setup, entry conversion and TXT parsing
package discovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
)

func TestNewManager(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "Stage Left", Port: 8928})
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	if mgr.config.Path != "/feed" {
		t.Errorf("expected default path /feed, got %s", mgr.config.Path)
	}
	if mgr.Feeds() == nil {
		t.Error("feeds channel should not be nil")
	}

	mgr.Stop()
	select {
	case <-mgr.ctx.Done():
	default:
		t.Error("Stop should cancel the context")
	}
}

func TestFeedFromEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry *mdns.ServiceEntry
		want  *FeedInfo
	}{
		{
			name: "ipv4 with path",
			entry: &mdns.ServiceEntry{
				Name:       "Stage Left._pulse-feed._tcp.local.",
				AddrV4:     net.ParseIP("192.168.1.20"),
				Port:       8928,
				InfoFields: []string{"path=/visuals"},
			},
			want: &FeedInfo{Name: "Stage Left", Host: "192.168.1.20", Port: 8928, Path: "/visuals"},
		},
		{
			name: "default path",
			entry: &mdns.ServiceEntry{
				Name:   "Bar._pulse-feed._tcp.local.",
				AddrV4: net.ParseIP("10.0.0.5"),
				Port:   9000,
			},
			want: &FeedInfo{Name: "Bar", Host: "10.0.0.5", Port: 9000, Path: "/feed"},
		},
		{
			name: "other service",
			entry: &mdns.ServiceEntry{
				Name:   "Printer._ipp._tcp.local.",
				AddrV4: net.ParseIP("10.0.0.9"),
				Port:   631,
			},
		},
		{
			name:  "no address",
			entry: &mdns.ServiceEntry{Name: "Ghost._pulse-feed._tcp.local.", Port: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feedFromEntry(tt.entry)
			if tt.want == nil {
				if got != nil {
					t.Errorf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil || *got != *tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestFeedAddr(t *testing.T) {
	f := &FeedInfo{Host: "192.168.1.20", Port: 8928}
	if f.Addr() != "192.168.1.20:8928" {
		t.Errorf("unexpected addr %s", f.Addr())
	}
}

func TestTxtValue(t *testing.T) {
	fields := []string{"version=1", "path=/feed", "flag"}

	if got := txtValue(fields, "path"); got != "/feed" {
		t.Errorf("expected /feed, got %q", got)
	}
	if got := txtValue(fields, "flag"); got != "" {
		t.Errorf("expected empty value for bare flag, got %q", got)
	}
	if got := txtValue(nil, "path"); got != "" {
		t.Errorf("expected empty value, got %q", got)
	}
}

func TestMarkSeenReportsOnce(t *testing.T) {
	mgr := NewManager(Config{})
	defer mgr.Stop()

	if !mgr.markSeen("10.0.0.5:9000") {
		t.Error("first sighting should be reported")
	}
	if mgr.markSeen("10.0.0.5:9000") {
		t.Error("repeat sighting should be suppressed")
	}
}
