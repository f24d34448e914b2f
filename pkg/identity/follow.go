package identity

import "fmt"

// Follow is one directed, weighted trust assertion: (target, weight,
// attribution). A nil Attribution marks a "list follow" (trust of another
// peer's follow list); a non-nil Attribution marks a "class follow" (a
// claim that Target owns the named domain).
//
// Weight is raw trust and is not normalized at construction - it may fall
// outside [-1, 1]; every downstream computation clamps it into that range.
// Equality and the dedup key deliberately exclude Weight, which is mutable
// under training.
type Follow struct {
	Target      PublicKey
	Weight      float64
	Attribution *string
}

// NewFollow constructs a list follow (attribution == nil).
func NewFollow(target PublicKey, weight float64) Follow {
	return Follow{Target: target, Weight: weight}
}

// NewClassFollow constructs a class follow attributing domain to target.
func NewClassFollow(target PublicKey, weight float64, domain string) Follow {
	d := domain
	return Follow{Target: target, Weight: weight, Attribution: &d}
}

// IsClassFollow reports whether this follow carries a domain attribution.
func (f Follow) IsClassFollow() bool {
	return f.Attribution != nil
}

// Domain returns the attributed domain, or "" for a list follow.
func (f Follow) Domain() string {
	if f.Attribution == nil {
		return ""
	}
	return *f.Attribution
}

// ClampedWeight returns Weight clamped into [-1, +1], the range every
// downstream computation (graph matrices, training) is required to use.
func (f Follow) ClampedWeight() float64 {
	switch {
	case f.Weight > 1.0:
		return 1.0
	case f.Weight < -1.0:
		return -1.0
	default:
		return f.Weight
	}
}

// dedupKey is the (target, attribution) pair that identity and hashing use,
// ignoring Weight.
type dedupKey struct {
	target      PublicKey
	attribution string
	hasAttr     bool
}

// Key returns the comparable key used for equality, hashing and
// duplicate-collapsing across a follow list.
func (f Follow) Key() any {
	if f.Attribution == nil {
		return dedupKey{target: f.Target, hasAttr: false}
	}
	return dedupKey{target: f.Target, attribution: *f.Attribution, hasAttr: true}
}

// Equal compares two follows by (target, attribution) only.
func (f Follow) Equal(other Follow) bool {
	return f.Key() == other.Key()
}

func (f Follow) String() string {
	if f.Attribution == nil {
		return fmt.Sprintf("📃 %s %.2f", f.Target, f.Weight)
	}
	return fmt.Sprintf("🅰️ %s %.2f %s", f.Target, f.Weight, *f.Attribution)
}
