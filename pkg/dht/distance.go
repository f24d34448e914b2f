// Package dht implements an in-process Kademlia-shaped distributed hash
// table for resolving signed record packets by public key. The key space
// is 256 bits wide: identity.PublicKey is a 32-byte ed25519 key, so no
// re-hashing into a separate ring is needed.
package dht

import "github.com/pknames/pknames-go/pkg/identity"

// keyBits is the width of the key space: 32 bytes of ed25519 public key.
const keyBits = identity.KeySize * 8

// distance is the XOR metric between two keys, used both to order peers
// by closeness and to pick a k-bucket index.
func distance(a, b identity.PublicKey) identity.PublicKey {
	var d identity.PublicKey
	for i := range a {
		d[i] = a[i] ^ b[i]
	}
	return d
}

// bucketIndex returns which of the keyBits k-buckets a peer belongs in,
// relative to self: the index of the first bit at which self and peer
// differ, counting from the most significant bit. Identical keys have no
// bucket and bucketIndex returns -1.
func bucketIndex(self, peer identity.PublicKey) int {
	d := distance(self, peer)
	for byteIdx, b := range d {
		if b == 0 {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			if b&(0x80>>uint(bit)) != 0 {
				return byteIdx*8 + bit
			}
		}
	}
	return -1
}

// closer reports whether a is strictly closer than b to target under the
// XOR metric.
func closer(target, a, b identity.PublicKey) bool {
	da, db := distance(target, a), distance(target, b)
	for i := range da {
		if da[i] != db[i] {
			return da[i] < db[i]
		}
	}
	return false
}
