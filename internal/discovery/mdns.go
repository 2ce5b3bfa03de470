// ABOUTME: mDNS service discovery for pulse feeds
// ABOUTME: Handles both advertisement (driver side) and browsing (renderer side)
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service advertised by feeds
const ServiceType = "_pulse-feed._tcp"

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Path        string // feed path advertised in TXT (default: /feed)
}

// Manager handles mDNS operations
type Manager struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc
	feeds  chan *FeedInfo

	mu   sync.Mutex
	seen map[string]bool
}

// FeedInfo describes a discovered feed
type FeedInfo struct {
	Name string
	Host string
	Port int
	Path string
}

// Addr returns host:port
func (f *FeedInfo) Addr() string {
	return net.JoinHostPort(f.Host, fmt.Sprint(f.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.Path == "" {
		config.Path = "/feed"
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config: config,
		ctx:    ctx,
		cancel: cancel,
		feeds:  make(chan *FeedInfo, 10),
		seen:   make(map[string]bool),
	}
}

// Advertise announces the feed via mDNS until Stop is called
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		[]string{"path=" + m.config.Path},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for feeds in the background
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop re-queries until stopped, reporting each feed once
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for entry := range entries {
				info := feedFromEntry(entry)
				if info == nil || !m.markSeen(info.Addr()) {
					continue
				}

				log.Printf("Discovered feed: %s at %s%s", info.Name, info.Addr(), info.Path)

				select {
				case m.feeds <- info:
				case <-m.ctx.Done():
				}
			}
		}()

		params := mdns.DefaultParams(ServiceType)
		params.Timeout = 3 * time.Second
		params.Entries = entries
		params.DisableIPv6 = true

		if err := mdns.Query(params); err != nil {
			log.Printf("mDNS query failed: %v", err)
		}
		close(entries)
		<-done
	}
}

func (m *Manager) markSeen(addr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.seen[addr] {
		return false
	}
	m.seen[addr] = true
	return true
}

// feedFromEntry converts a service entry, skipping entries of other types
func feedFromEntry(entry *mdns.ServiceEntry) *FeedInfo {
	if entry == nil || !strings.Contains(entry.Name, ServiceType) {
		return nil
	}

	host := ""
	if entry.AddrV4 != nil {
		host = entry.AddrV4.String()
	} else if entry.AddrV6 != nil {
		host = entry.AddrV6.String()
	}
	if host == "" {
		return nil
	}

	path := txtValue(entry.InfoFields, "path")
	if path == "" {
		path = "/feed"
	}

	name := entry.Name
	if i := strings.Index(name, "."+ServiceType); i > 0 {
		name = name[:i]
	}

	return &FeedInfo{
		Name: name,
		Host: host,
		Port: entry.Port,
		Path: path,
	}
}

// txtValue returns the value for key in key=value TXT fields
func txtValue(fields []string, key string) string {
	for _, f := range fields {
		k, v, ok := strings.Cut(f, "=")
		if ok && k == key {
			return v
		}
	}
	return ""
}

// Feeds returns the channel of discovered feeds
func (m *Manager) Feeds() <-chan *FeedInfo {
	return m.feeds
}

// Stop stops advertising and browsing
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
