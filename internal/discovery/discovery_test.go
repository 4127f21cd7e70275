package discovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
)

func TestPeerEndpoint(t *testing.T) {
	tests := []struct {
		peer Peer
		want string
	}{
		{Peer{Addr: net.IPv4(192, 168, 1, 7), Port: 4000, Path: "/"}, "ws://192.168.1.7:4000/"},
		{Peer{Addr: net.IPv4(10, 0, 0, 1), Port: 80, Path: "ws"}, "ws://10.0.0.1:80/ws"},
		{Peer{Addr: net.IPv4(127, 0, 0, 1), Port: 4000}, "ws://127.0.0.1:4000/"},
		{Peer{Addr: net.ParseIP("::1"), Port: 4000, Path: "/plot"}, "ws://[::1]:4000/plot"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.peer.Endpoint())
	}
}

func TestPeerFromEntry(t *testing.T) {
	e := &mdns.ServiceEntry{
		Name:       "desk._quadplot._tcp.local.",
		AddrV4:     net.IPv4(192, 168, 1, 7),
		Port:       4000,
		InfoFields: txtRecords("/plot"),
	}
	p, ok := peerFromEntry(e)
	assert.True(t, ok)
	assert.Equal(t, "desk", p.Instance)
	assert.Equal(t, "ws://192.168.1.7:4000/plot", p.Endpoint())

	_, ok = peerFromEntry(&mdns.ServiceEntry{Name: "x", Port: 4000})
	assert.False(t, ok, "entries without an IPv4 address are skipped")
	_, ok = peerFromEntry(nil)
	assert.False(t, ok)
}

func TestSortPeers(t *testing.T) {
	peers := []Peer{
		{Instance: "b", Addr: net.IPv4(1, 1, 1, 1), Port: 1},
		{Instance: "a", Addr: net.IPv4(2, 2, 2, 2), Port: 2},
		{Instance: "a", Addr: net.IPv4(1, 1, 1, 1), Port: 2},
	}
	sortPeers(peers)
	assert.Equal(t, "ws://1.1.1.1:2/", peers[0].Endpoint())
	assert.Equal(t, "ws://2.2.2.2:2/", peers[1].Endpoint())
	assert.Equal(t, "b", peers[2].Instance)
}

func TestInstanceName(t *testing.T) {
	assert.Equal(t, "My Laptop", instanceName("My Laptop._quadplot._tcp.local."))
	assert.Equal(t, "other.local", instanceName("other.local."))
}
