// Package discovery announces and finds quadplot peers on the local network
// over mDNS.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the DNS-SD service peers register under.
const ServiceType = "_quadplot._tcp"

const pathKey = "path="

// Peer is one discovered equation server.
type Peer struct {
	Instance string
	Addr     net.IP
	Port     int
	Path     string
}

// Endpoint returns the websocket URL of the peer.
func (p Peer) Endpoint() string {
	path := p.Path
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	return "ws://" + net.JoinHostPort(p.Addr.String(), strconv.Itoa(p.Port)) + path
}

// Advertiser keeps a peer announced until Close.
type Advertiser struct {
	server *mdns.Server
	logger *slog.Logger
}

// Advertise announces a peer listening on port with the websocket at path.
// An empty instance uses the host name.
func Advertise(instance string, port int, path string, logger *slog.Logger) (*Advertiser, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "discovery")

	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("could not get hostname: %w", err)
		}
		instance = host
	}

	service, err := mdns.NewMDNSService(instance, ServiceType, "", "", port, nil, txtRecords(path))
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}

	logger.Info("advertising peer", "instance", instance, "port", port, "path", path)
	return &Advertiser{server: server, logger: logger}, nil
}

// Close withdraws the announcement.
func (a *Advertiser) Close() error {
	a.logger.Debug("withdrawing peer")
	return a.server.Shutdown()
}

// Lookup browses for peers until timeout or ctx ends and returns them sorted
// by instance name.
func Lookup(ctx context.Context, timeout time.Duration) ([]Peer, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	done := make(chan error, 1)
	go func() {
		done <- mdns.Query(params)
		close(entries)
	}()

	var peers []Peer
	seen := make(map[string]bool)
	for {
		select {
		case e, ok := <-entries:
			if !ok {
				if err := <-done; err != nil {
					return peers, fmt.Errorf("mDNS query failed: %w", err)
				}
				sortPeers(peers)
				return peers, nil
			}
			p, ok := peerFromEntry(e)
			if !ok || seen[p.Endpoint()] {
				continue
			}
			seen[p.Endpoint()] = true
			peers = append(peers, p)
		case <-ctx.Done():
			// Query returns on its own timeout; drain so it never blocks.
			go func() {
				for range entries {
				}
			}()
			sortPeers(peers)
			return peers, ctx.Err()
		}
	}
}

func txtRecords(path string) []string {
	if path == "" {
		path = "/"
	}
	return []string{"quadplot", pathKey + path}
}

func peerFromEntry(e *mdns.ServiceEntry) (Peer, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return Peer{}, false
	}
	p := Peer{
		Instance: instanceName(e.Name),
		Addr:     e.AddrV4,
		Port:     e.Port,
		Path:     "/",
	}
	for _, field := range e.InfoFields {
		if strings.HasPrefix(field, pathKey) {
			p.Path = strings.TrimPrefix(field, pathKey)
		}
	}
	return p, true
}

// instanceName strips the service and domain suffix from a full entry name.
func instanceName(name string) string {
	if i := strings.Index(name, "."+ServiceType); i >= 0 {
		return name[:i]
	}
	return strings.TrimSuffix(name, ".")
}

func sortPeers(peers []Peer) {
	sort.Slice(peers, func(i, j int) bool {
		if peers[i].Instance != peers[j].Instance {
			return peers[i].Instance < peers[j].Instance
		}
		return peers[i].Endpoint() < peers[j].Endpoint()
	})
}
