// Package graph implements the web-of-trust graph model: nodes, directed
// weighted follow edges, and the read-only lookups and invariants every
// later stage (transform, prune, predict) is built on.
package graph

import (
	"fmt"

	"github.com/pknames/pknames-go/pkg/identity"
)

// Node is (pubkey, alias, follows). A node with zero follows is a "class"
// node (a candidate answer); a node with one or more follows is a "list"
// node. The distinction is purely structural, not a type tag:
// the same key can be a list node in one query and a class node in another.
type Node struct {
	PubKey  identity.PublicKey
	Alias   string
	Follows []identity.Follow
}

// NewNode constructs a node, deduplicating its follows last-wins, mirroring
// FollowList's ingest rule.
func NewNode(pubkey identity.PublicKey, alias string, follows []identity.Follow) Node {
	return Node{PubKey: pubkey, Alias: alias, Follows: dedupFollows(follows)}
}

func dedupFollows(follows []identity.Follow) []identity.Follow {
	index := make(map[any]int, len(follows))
	result := make([]identity.Follow, 0, len(follows))
	for _, f := range follows {
		key := f.Key()
		if i, ok := index[key]; ok {
			result[i] = f
			continue
		}
		index[key] = len(result)
		result = append(result, f)
	}
	return result
}

// IsListNode reports whether this node carries any outgoing follow.
func (n Node) IsListNode() bool {
	return len(n.Follows) > 0
}

// IsClassNode reports whether this node carries no outgoing follow.
func (n Node) IsClassNode() bool {
	return len(n.Follows) == 0
}

// GetFollow finds the outgoing follow toward target, if any.
func (n Node) GetFollow(target identity.PublicKey) (identity.Follow, bool) {
	for _, f := range n.Follows {
		if f.Target == target {
			return f, true
		}
	}
	return identity.Follow{}, false
}

func (n Node) String() string {
	name := n.PubKey.String()
	if n.Alias != "" {
		name = fmt.Sprintf("%s (%s)", name, n.Alias)
	}
	return name
}

// Clone returns a deep copy of the node (its Follows slice is copied).
func (n Node) Clone() Node {
	follows := make([]identity.Follow, len(n.Follows))
	copy(follows, n.Follows)
	return Node{PubKey: n.PubKey, Alias: n.Alias, Follows: follows}
}
