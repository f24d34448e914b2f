// Package werrors defines the four error kinds every layer classifies
// failures into, plus an errors.Is-compatible sentinel per kind.
package werrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for error-handling and logging purposes.
type Kind int

const (
	// Configuration covers an unreadable config directory or a malformed
	// list file: abort at startup, or for a single list, log and skip.
	Configuration Kind = iota
	// Input covers a query name not present in the web of trust, or a
	// queried domain with no matching class node: answer NXDOMAIN/SERVFAIL.
	Input
	// Upstream covers the DHT returning nothing, or an upstream resolver
	// timeout: answer SERVFAIL, never cache the negative result.
	Upstream
	// Internal covers a cycle surviving pruning, or a NaN weight after
	// training: log at error, answer SERVFAIL.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case Input:
		return "input"
	case Upstream:
		return "upstream"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Sentinel errors for errors.Is checks against a Kind, without needing to
// unwrap a concrete *Error every time.
var (
	ErrConfiguration = errors.New("werrors: configuration error")
	ErrInput         = errors.New("werrors: input error")
	ErrUpstream      = errors.New("werrors: upstream error")
	ErrInternal      = errors.New("werrors: internal error")
)

func sentinelFor(k Kind) error {
	switch k {
	case Configuration:
		return ErrConfiguration
	case Input:
		return ErrInput
	case Upstream:
		return ErrUpstream
	case Internal:
		return ErrInternal
	default:
		return ErrInternal
	}
}

// Error is a classified failure: a Kind plus the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e.Kind, so callers can
// write errors.Is(err, werrors.ErrInput) without caring about Op or the
// wrapped cause.
func (e *Error) Is(target error) bool {
	return target == sentinelFor(e.Kind)
}

// New wraps err as a classified Error. op is a short description of what
// was being attempted (e.g. "read static_lists/alice.json").
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf is New with a formatted cause and no wrapped error.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}
