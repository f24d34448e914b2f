package dht

import (
	"context"
	"errors"
	"sync"

	"github.com/pknames/pknames-go/pkg/identity"
	"github.com/pknames/pknames-go/pkg/werrors"
)

// alpha is Kademlia's concurrency parameter: the number of peers queried
// in parallel at each iterative-lookup round.
const alpha = 3

// ErrPeerUnreachable is returned by a Transport when the addressed peer
// cannot be contacted.
var ErrPeerUnreachable = errors.New("dht: peer unreachable")

// ErrNotFound is returned by Resolve when no reachable peer holds a
// packet for the requested key.
var ErrNotFound = errors.New("dht: key not found")

// Client is the external boundary the resolver talks to: resolve a
// published signed packet by its owner's public key, or publish one of
// our own.
type Client interface {
	Resolve(ctx context.Context, key identity.PublicKey) ([]byte, error)
	Publish(ctx context.Context, key identity.PublicKey, packet []byte) error
}

// Node is a single participant in the in-process DHT: it holds a local
// packet Store, a k-bucket routing table, and a Transport for reaching
// other nodes. It implements Client.
type Node struct {
	self      identity.PublicKey
	addr      string
	transport Transport
	table     *routingTable
	store     *Store

	mu sync.Mutex
}

// NewNode builds a Node. addr is this node's own address as known to
// transport (e.g. the key InProcessTransport.Register used, or a real
// UDP address for a networked transport).
func NewNode(self identity.PublicKey, addr string, transport Transport, store *Store) *Node {
	return &Node{
		self:      self,
		addr:      addr,
		transport: transport,
		table:     newRoutingTable(self),
		store:     store,
	}
}

// Bootstrap seeds the routing table with a known peer and learns more
// peers from it via a self-lookup, the standard Kademlia join procedure.
func (n *Node) Bootstrap(ctx context.Context, seed Peer) error {
	n.table.Add(seed)
	_, err := n.lookup(ctx, n.self)
	return err
}

// Publish stores packet locally and pushes it to the closest known peers
// to key.
func (n *Node) Publish(ctx context.Context, key identity.PublicKey, packet []byte) error {
	if err := n.store.Put(key, packet); err != nil {
		return werrors.New(werrors.Internal, "store packet locally", err)
	}

	peers := n.lookupPeers(ctx, key)
	var firstErr error
	stored := 0
	for _, p := range peers {
		if err := n.transport.Store(ctx, p.Addr, key, packet); err != nil {
			n.table.Remove(p.Key)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		stored++
	}
	if stored == 0 && len(peers) > 0 {
		return werrors.New(werrors.Upstream, "publish to network", firstErr)
	}
	return nil
}

// Resolve returns the packet published for key: a local hit short-circuits
// the network lookup, otherwise an iterative FindValue walk is run against
// progressively closer peers.
func (n *Node) Resolve(ctx context.Context, key identity.PublicKey) ([]byte, error) {
	if packet, ok := n.store.Get(key); ok {
		return packet, nil
	}

	packet, err := n.lookupValue(ctx, key)
	if err != nil {
		return nil, err
	}
	return packet, nil
}

// lookup runs an iterative FindNode walk toward target and returns the
// closest peers discovered, merging them into the routing table as they
// are seen.
func (n *Node) lookup(ctx context.Context, target identity.PublicKey) ([]Peer, error) {
	return n.lookupPeers(ctx, target), nil
}

func (n *Node) lookupPeers(ctx context.Context, target identity.PublicKey) []Peer {
	shortlist := n.table.Closest(target, bucketSize)
	queried := map[identity.PublicKey]bool{n.self: true}

	for {
		round := pickUnqueried(shortlist, queried, alpha)
		if len(round) == 0 {
			break
		}

		type result struct {
			peers []Peer
			err   error
			from  Peer
		}
		results := make(chan result, len(round))
		var wg sync.WaitGroup
		for _, p := range round {
			queried[p.Key] = true
			wg.Add(1)
			go func(p Peer) {
				defer wg.Done()
				peers, err := n.transport.FindNode(ctx, p.Addr, target)
				results <- result{peers: peers, err: err, from: p}
			}(p)
		}
		wg.Wait()
		close(results)

		progressed := false
		for r := range results {
			if r.err != nil {
				n.table.Remove(r.from.Key)
				continue
			}
			n.table.Add(r.from)
			for _, np := range r.peers {
				if np.Key == n.self || queried[np.Key] {
					continue
				}
				n.table.Add(np)
				shortlist = append(shortlist, np)
				progressed = true
			}
		}
		if !progressed {
			break
		}
		shortlist = closestUnique(target, shortlist, bucketSize)
	}

	return closestUnique(target, shortlist, bucketSize)
}

func (n *Node) lookupValue(ctx context.Context, key identity.PublicKey) ([]byte, error) {
	shortlist := n.table.Closest(key, bucketSize)
	queried := map[identity.PublicKey]bool{n.self: true}

	for {
		round := pickUnqueried(shortlist, queried, alpha)
		if len(round) == 0 {
			return nil, ErrNotFound
		}

		for _, p := range round {
			queried[p.Key] = true
			packet, peers, ok, err := n.transport.FindValue(ctx, p.Addr, key)
			if err != nil {
				n.table.Remove(p.Key)
				continue
			}
			n.table.Add(p)
			if ok {
				return packet, nil
			}
			for _, np := range peers {
				if np.Key != n.self && !queried[np.Key] {
					n.table.Add(np)
					shortlist = append(shortlist, np)
				}
			}
		}
		shortlist = closestUnique(key, shortlist, bucketSize)
	}
}

func pickUnqueried(peers []Peer, queried map[identity.PublicKey]bool, n int) []Peer {
	var out []Peer
	for _, p := range peers {
		if queried[p.Key] {
			continue
		}
		out = append(out, p)
		if len(out) == n {
			break
		}
	}
	return out
}

func closestUnique(target identity.PublicKey, peers []Peer, n int) []Peer {
	seen := map[identity.PublicKey]bool{}
	var unique []Peer
	for _, p := range peers {
		if seen[p.Key] {
			continue
		}
		seen[p.Key] = true
		unique = append(unique, p)
	}
	table := newRoutingTable(target)
	for _, p := range unique {
		table.Add(p)
	}
	return table.Closest(target, n)
}

var _ Client = (*Node)(nil)
