// Package identity defines the value types shared by every layer of the
// web-of-trust pipeline: public keys, weighted follows and follow lists.
package identity

import (
	"crypto/ed25519"
	"encoding/base32"
	"fmt"
	"strings"
)

// KeySize is the length in bytes of a public key.
const KeySize = ed25519.PublicKeySize

// z32Encoding is the z-base-32 alphabet (human-oriented base32, rfc1924-like
// ordering used by DNSCurve/pkarr) expressed as a stdlib base32 encoding with
// a substituted alphabet. No padding.
var z32Encoding = base32.NewEncoding("ybndrfg8ejkmcpqxot1uwisza345h769").WithPadding(base32.NoPadding)

// PublicKey is an immutable 32-byte self-certifying identifier.
type PublicKey [KeySize]byte

// ParsePublicKey parses a z-base-32 textual key, with or without the "pk:"
// prefix.
func ParsePublicKey(text string) (PublicKey, error) {
	var pk PublicKey
	trimmed := strings.TrimPrefix(text, "pk:")
	decoded, err := z32Encoding.DecodeString(trimmed)
	if err != nil {
		return pk, fmt.Errorf("identity: invalid z-base-32 key %q: %w", text, err)
	}
	if len(decoded) != KeySize {
		return pk, fmt.Errorf("identity: key %q decodes to %d bytes, want %d", text, len(decoded), KeySize)
	}
	copy(pk[:], decoded)
	return pk, nil
}

// Z32Encode renders arbitrary bytes (e.g. an ed25519 seed) in the same
// z-base-32 alphabet used for public keys.
func Z32Encode(raw []byte) string {
	return z32Encoding.EncodeToString(raw)
}

// Z32Decode is the inverse of Z32Encode.
func Z32Decode(text string) ([]byte, error) {
	decoded, err := z32Encoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("identity: invalid z-base-32 data %q: %w", text, err)
	}
	return decoded, nil
}

// NewPublicKey builds a PublicKey from raw bytes.
func NewPublicKey(raw []byte) (PublicKey, error) {
	var pk PublicKey
	if len(raw) != KeySize {
		return pk, fmt.Errorf("identity: raw key has %d bytes, want %d", len(raw), KeySize)
	}
	copy(pk[:], raw)
	return pk, nil
}

// String renders the key in its canonical "pk:<z32>" textual form.
func (k PublicKey) String() string {
	return "pk:" + k.Z32()
}

// Z32 renders the key as a bare z-base-32 string, without the "pk:" prefix.
func (k PublicKey) Z32() string {
	return z32Encoding.EncodeToString(k[:])
}

// IsZero reports whether k is the all-zero placeholder key.
func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}

// Less orders keys lexicographically by their raw bytes. This is not the
// order of their z-base-32 text, whose alphabet is not in ascending
// character order. Used for the sorted-node invariant and tie-breaking.
func (k PublicKey) Less(other PublicKey) bool {
	for i := range k {
		if k[i] != other[i] {
			return k[i] < other[i]
		}
	}
	return false
}

// MarshalText implements encoding.TextMarshaler so PublicKey can be used
// directly as a JSON string or map key.
func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
