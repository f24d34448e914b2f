package dht

import (
	"context"
	"sync"

	"github.com/pknames/pknames-go/pkg/identity"
)

// Transport carries FindNode/Store/FindValue RPCs to a peer. Production
// deployments would implement this over UDP against a real mainline DHT
// (bittorrent BEP44); this module ships the in-process transport needed
// to exercise the resolver end-to-end without a network.
type Transport interface {
	// FindNode asks addr for its closest known peers to target.
	FindNode(ctx context.Context, addr string, target identity.PublicKey) ([]Peer, error)
	// FindValue asks addr for the packet published under key, returning
	// ok=false if addr doesn't have it (callers then fall back to the
	// peers addr returns instead).
	FindValue(ctx context.Context, addr string, key identity.PublicKey) (packet []byte, peers []Peer, ok bool, err error)
	// Store asks addr to hold packet under key.
	Store(ctx context.Context, addr string, key identity.PublicKey, packet []byte) error
}

// InProcessTransport routes DHT RPCs directly to other Node values
// registered in the same process, keyed by the address each Node was
// registered under. It lets tests build a multi-node DHT network without
// opening real sockets.
type InProcessTransport struct {
	mu    sync.RWMutex
	nodes map[string]*Node
}

// NewInProcessTransport builds an empty in-process network.
func NewInProcessTransport() *InProcessTransport {
	return &InProcessTransport{nodes: make(map[string]*Node)}
}

// Register makes a Node reachable at addr over this transport.
func (t *InProcessTransport) Register(addr string, n *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nodes[addr] = n
}

func (t *InProcessTransport) peer(addr string) (*Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[addr]
	return n, ok
}

func (t *InProcessTransport) FindNode(ctx context.Context, addr string, target identity.PublicKey) ([]Peer, error) {
	n, ok := t.peer(addr)
	if !ok {
		return nil, ErrPeerUnreachable
	}
	return n.table.Closest(target, bucketSize), nil
}

func (t *InProcessTransport) FindValue(ctx context.Context, addr string, key identity.PublicKey) ([]byte, []Peer, bool, error) {
	n, ok := t.peer(addr)
	if !ok {
		return nil, nil, false, ErrPeerUnreachable
	}
	if packet, found := n.store.Get(key); found {
		return packet, nil, true, nil
	}
	return nil, n.table.Closest(key, bucketSize), false, nil
}

func (t *InProcessTransport) Store(ctx context.Context, addr string, key identity.PublicKey, packet []byte) error {
	n, ok := t.peer(addr)
	if !ok {
		return ErrPeerUnreachable
	}
	return n.store.Put(key, packet)
}
