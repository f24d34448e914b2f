// Package dnswire defines the signed DNS packet envelope peers publish to
// and resolve from the DHT: an ed25519 signature over the owner key, a
// monotonic sequence number and the packed DNS message wire bytes.
package dnswire

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	"github.com/miekg/dns"

	"github.com/pknames/pknames-go/pkg/identity"
	"github.com/pknames/pknames-go/pkg/werrors"
)

// sigSize is the length of an ed25519 signature.
const sigSize = ed25519.SignatureSize

// SignedPacket is a DNS message signed by its owner's key, with a
// monotonic sequence number so a newer publish supersedes an older one
// (mirrors pkarr's signed packet envelope).
type SignedPacket struct {
	Owner     identity.PublicKey
	Sequence  uint64
	Signature [sigSize]byte
	Wire      []byte // dns.Msg.Pack() bytes
}

// signedPayload is what gets signed: the owner key, the sequence number (so
// an older packet can't be replayed as newer), then the wire bytes.
func signedPayload(owner identity.PublicKey, seq uint64, wire []byte) []byte {
	buf := make([]byte, 0, len(owner)+8+len(wire))
	buf = append(buf, owner[:]...)
	var seqBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], seq)
	buf = append(buf, seqBytes[:]...)
	buf = append(buf, wire...)
	return buf
}

// Sign packs msg and signs it as owner's packet at the given sequence
// number.
func Sign(priv ed25519.PrivateKey, owner identity.PublicKey, seq uint64, msg *dns.Msg) (SignedPacket, error) {
	wire, err := msg.Pack()
	if err != nil {
		return SignedPacket{}, werrors.New(werrors.Internal, "pack dns message", err)
	}

	sig := ed25519.Sign(priv, signedPayload(owner, seq, wire))
	var sp SignedPacket
	sp.Owner = owner
	sp.Sequence = seq
	copy(sp.Signature[:], sig)
	sp.Wire = wire
	return sp, nil
}

// Verify checks sp's signature against its claimed Owner and, if valid,
// unpacks the wire DNS message.
func Verify(sp SignedPacket) (*dns.Msg, error) {
	if !ed25519.Verify(ed25519.PublicKey(sp.Owner[:]), signedPayload(sp.Owner, sp.Sequence, sp.Wire), sp.Signature[:]) {
		return nil, werrors.New(werrors.Input, "verify signed packet", fmt.Errorf("signature mismatch for %s", sp.Owner))
	}
	msg := new(dns.Msg)
	if err := msg.Unpack(sp.Wire); err != nil {
		return nil, werrors.New(werrors.Input, "unpack dns message", err)
	}
	return msg, nil
}

// Encode serializes a SignedPacket to the flat byte layout stored in the
// DHT: owner(32) | sequence(8, big-endian) | signature(64) | wire(rest).
func Encode(sp SignedPacket) []byte {
	out := make([]byte, 0, identity.KeySize+8+sigSize+len(sp.Wire))
	out = append(out, sp.Owner[:]...)
	var seqBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], sp.Sequence)
	out = append(out, seqBytes[:]...)
	out = append(out, sp.Signature[:]...)
	out = append(out, sp.Wire...)
	return out
}

// Decode is the inverse of Encode.
func Decode(data []byte) (SignedPacket, error) {
	minLen := identity.KeySize + 8 + sigSize
	if len(data) < minLen {
		return SignedPacket{}, werrors.Newf(werrors.Input, "signed packet too short: %d bytes, want at least %d", len(data), minLen)
	}

	var sp SignedPacket
	copy(sp.Owner[:], data[:identity.KeySize])
	data = data[identity.KeySize:]
	sp.Sequence = binary.BigEndian.Uint64(data[:8])
	data = data[8:]
	copy(sp.Signature[:], data[:sigSize])
	data = data[sigSize:]
	sp.Wire = append([]byte(nil), data...)
	return sp, nil
}
