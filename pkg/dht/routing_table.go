package dht

import (
	"sort"
	"sync"

	"github.com/pknames/pknames-go/pkg/identity"
)

// bucketSize is Kademlia's k: the maximum number of peers held per bucket.
const bucketSize = 20

// Peer is a known DHT participant: its key plus whatever address its
// Transport needs to reach it.
type Peer struct {
	Key  identity.PublicKey
	Addr string
}

// routingTable is a k-bucket table keyed by XOR distance from self.
type routingTable struct {
	self    identity.PublicKey
	mu      sync.RWMutex
	buckets [keyBits][]Peer
}

func newRoutingTable(self identity.PublicKey) *routingTable {
	return &routingTable{self: self}
}

// Add inserts or refreshes a peer, evicting the least-recently-seen entry
// (the bucket's head, per Kademlia's original LRU rule) if the bucket is
// already full of other peers.
func (t *routingTable) Add(p Peer) {
	if p.Key == t.self {
		return
	}
	idx := bucketIndex(t.self, p.Key)
	if idx < 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	bucket := t.buckets[idx]
	for i, existing := range bucket {
		if existing.Key == p.Key {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	bucket = append(bucket, p)
	if len(bucket) > bucketSize {
		bucket = bucket[1:]
	}
	t.buckets[idx] = bucket
}

// Remove drops a peer from its bucket, e.g. after a transport failure.
func (t *routingTable) Remove(key identity.PublicKey) {
	idx := bucketIndex(t.self, key)
	if idx < 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	bucket := t.buckets[idx]
	for i, existing := range bucket {
		if existing.Key == key {
			t.buckets[idx] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

// Closest returns up to n known peers ordered by increasing XOR distance
// to target.
func (t *routingTable) Closest(target identity.PublicKey, n int) []Peer {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var all []Peer
	for _, bucket := range t.buckets {
		all = append(all, bucket...)
	}
	sort.Slice(all, func(i, j int) bool {
		return closer(target, all[i].Key, all[j].Key)
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// Len returns the total number of peers across all buckets.
func (t *routingTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, bucket := range t.buckets {
		n += len(bucket)
	}
	return n
}
