package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pknames/pknames-go/pkg/identity"
)

// ErrCyclePresent is returned by GetLayers when the graph still contains a
// cycle; pruning (pkg/prune) must run first.
var ErrCyclePresent = errors.New("graph: cannot layer a graph that still contains a cycle")

// Graph is a sorted collection of nodes plus the two relations the rest of
// the pipeline is built on: out-edges (a node's own Follows) and in-edges
// (every follow across the graph targeting a key).
type Graph struct {
	Nodes []Node
}

// New builds a Graph, sorting nodes by key as the sorted-node invariant
// requires.
func New(nodes []Node) Graph {
	sorted := make([]Node, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PubKey.Less(sorted[j].PubKey) })
	return Graph{Nodes: sorted}
}

// Validate checks the graph invariants: unique keys, and every follow
// target resolves to an existing node.
func (g Graph) Validate() error {
	seen := make(map[identity.PublicKey]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if seen[n.PubKey] {
			return fmt.Errorf("graph: duplicate node key %s", n.PubKey)
		}
		seen[n.PubKey] = true
	}
	for _, n := range g.Nodes {
		for _, f := range n.Follows {
			if _, ok := g.GetNode(f.Target); !ok {
				return fmt.Errorf("graph: dangling edge %s -> %s", n.PubKey, f.Target)
			}
		}
	}
	return nil
}

// GetNode finds a node by key via binary search (nodes are sorted).
func (g Graph) GetNode(key identity.PublicKey) (*Node, bool) {
	i := sort.Search(len(g.Nodes), func(i int) bool { return !g.Nodes[i].PubKey.Less(key) })
	if i < len(g.Nodes) && g.Nodes[i].PubKey == key {
		return &g.Nodes[i], true
	}
	return nil, false
}

// GetFollow finds the follow src -> dst, if any.
func (g Graph) GetFollow(src, dst identity.PublicKey) (identity.Follow, bool) {
	node, ok := g.GetNode(src)
	if !ok {
		return identity.Follow{}, false
	}
	return node.GetFollow(dst)
}

// GetFollowMut returns a pointer to the src -> dst follow for in-place
// mutation. Only used by training.
func (g *Graph) GetFollowMut(src, dst identity.PublicKey) *identity.Follow {
	for ni := range g.Nodes {
		if g.Nodes[ni].PubKey != src {
			continue
		}
		for fi := range g.Nodes[ni].Follows {
			if g.Nodes[ni].Follows[fi].Target == dst {
				return &g.Nodes[ni].Follows[fi]
			}
		}
		return nil
	}
	return nil
}

// RemoveFollow removes the src -> dst follow, returning true if one existed.
func (g *Graph) RemoveFollow(src, dst identity.PublicKey) bool {
	for ni := range g.Nodes {
		if g.Nodes[ni].PubKey != src {
			continue
		}
		follows := g.Nodes[ni].Follows
		for fi, f := range follows {
			if f.Target == dst {
				g.Nodes[ni].Follows = append(follows[:fi], follows[fi+1:]...)
				return true
			}
		}
		return false
	}
	return false
}

// RemoveNode drops a node (and its outgoing follows) from the graph. It does
// not touch other nodes' dangling edges; callers (the pruner) are
// responsible for retracting follows that target the removed node.
func (g *Graph) RemoveNode(key identity.PublicKey) bool {
	for i, n := range g.Nodes {
		if n.PubKey == key {
			g.Nodes = append(g.Nodes[:i], g.Nodes[i+1:]...)
			return true
		}
	}
	return false
}

// AllFollows returns every follow in the graph, paired with its owning
// node's key (the implicit source).
type OwnedFollow struct {
	Source identity.PublicKey
	Follow identity.Follow
}

func (g Graph) AllFollows() []OwnedFollow {
	var out []OwnedFollow
	for _, n := range g.Nodes {
		for _, f := range n.Follows {
			out = append(out, OwnedFollow{Source: n.PubKey, Follow: f})
		}
	}
	return out
}

// InEdges returns every follow across the graph whose target is key.
func (g Graph) InEdges(key identity.PublicKey) []OwnedFollow {
	var out []OwnedFollow
	for _, of := range g.AllFollows() {
		if of.Follow.Target == key {
			out = append(out, of)
		}
	}
	return out
}

// GetClasses returns every node that is the target of at least one
// attributed (class) follow, deduplicated. Computed from edges, not node
// shape, because the same key may be cited with different attributions by
// different asserters.
func (g Graph) GetClasses() []Node {
	seen := make(map[identity.PublicKey]bool)
	var classes []Node
	for _, of := range g.AllFollows() {
		if !of.Follow.IsClassFollow() {
			continue
		}
		if seen[of.Follow.Target] {
			continue
		}
		seen[of.Follow.Target] = true
		if node, ok := g.GetNode(of.Follow.Target); ok {
			classes = append(classes, *node)
		}
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].PubKey.Less(classes[j].PubKey) })
	return classes
}

// ContainsAttribution reports whether any edge in the graph carries this
// exact domain attribution.
func (g Graph) ContainsAttribution(domain string) bool {
	for _, of := range g.AllFollows() {
		if of.Follow.IsClassFollow() && of.Follow.Domain() == domain {
			return true
		}
	}
	return false
}

// GetLayers partitions the graph into topological layers by repeatedly
// peeling sink nodes (nodes with no outgoing edge into the remaining set).
// Layer 0 is the root; the final layer is the class nodes. Returns
// ErrCyclePresent if a cycle remains - pruning must run first.
func (g Graph) GetLayers() ([][]Node, error) {
	remaining := make([]Node, len(g.Nodes))
	copy(remaining, g.Nodes)

	var layersFromSinks [][]Node
	for len(remaining) > 0 {
		inRemaining := make(map[identity.PublicKey]bool, len(remaining))
		for _, n := range remaining {
			inRemaining[n.PubKey] = true
		}

		var sinkLayer []Node
		for _, n := range remaining {
			isSink := true
			for _, f := range n.Follows {
				if inRemaining[f.Target] {
					isSink = false
					break
				}
			}
			if isSink {
				sinkLayer = append(sinkLayer, n)
			}
		}
		if len(sinkLayer) == 0 {
			return nil, ErrCyclePresent
		}
		sort.Slice(sinkLayer, func(i, j int) bool { return sinkLayer[i].PubKey.Less(sinkLayer[j].PubKey) })

		sinkSet := make(map[identity.PublicKey]bool, len(sinkLayer))
		for _, n := range sinkLayer {
			sinkSet[n.PubKey] = true
		}
		next := remaining[:0:0]
		for _, n := range remaining {
			if !sinkSet[n.PubKey] {
				next = append(next, n)
			}
		}
		remaining = next

		layersFromSinks = append(layersFromSinks, sinkLayer)
	}

	layers := make([][]Node, len(layersFromSinks))
	for i, l := range layersFromSinks {
		layers[len(layersFromSinks)-1-i] = l
	}
	return layers, nil
}

// Depth returns the number of layers (requires an acyclic graph).
func (g Graph) Depth() (int, error) {
	layers, err := g.GetLayers()
	if err != nil {
		return 0, err
	}
	return len(layers), nil
}
