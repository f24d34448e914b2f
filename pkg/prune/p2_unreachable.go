package prune

import (
	"sort"

	"github.com/pknames/pknames-go/pkg/graph"
	"github.com/pknames/pknames-go/pkg/identity"
)

// removeUnreachable is passes P2 and P6: drop every node that does not lie
// on at least one directed path from root to a class node, then drop every
// follow that now dangles. Run twice in the pipeline (once before cycle
// breaking to shed obviously-useless nodes, once after P4/P5 to clean up
// isolates they produce) - P2, P6.
//
// A node qualifies by appearing on some root->class path; this is found via
// DFS that skips any edge that would revisit a node already on the current
// path, so it terminates even on a still-cyclic graph (P2 runs before the
// cycle breaker).
func removeUnreachable(g graph.Graph, root identity.PublicKey) graph.Graph {
	classes := g.GetClasses()
	useful := map[identity.PublicKey]bool{}

	rootNode, ok := g.GetNode(root)
	if !ok {
		return graph.New(nil)
	}

	for _, class := range classes {
		collectPathNodes(g, *rootNode, class.PubKey, map[identity.PublicKey]bool{}, []identity.PublicKey{root}, useful)
	}
	// When there are no classes at all, useful stays empty and every node
	// - including root - is dropped: the pipeline yields an empty graph.

	var kept []graph.Node
	for _, n := range g.Nodes {
		if useful[n.PubKey] {
			kept = append(kept, n)
		}
	}

	for i := range kept {
		filtered := kept[i].Follows[:0:0]
		for _, f := range kept[i].Follows {
			if useful[f.Target] {
				filtered = append(filtered, f)
			}
		}
		kept[i].Follows = filtered
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].PubKey.Less(kept[j].PubKey) })
	return graph.New(kept)
}

// collectPathNodes marks every node on a discovered root->target path as
// useful.
func collectPathNodes(
	g graph.Graph,
	current graph.Node,
	target identity.PublicKey,
	onStack map[identity.PublicKey]bool,
	path []identity.PublicKey,
	useful map[identity.PublicKey]bool,
) {
	onStack[current.PubKey] = true
	defer delete(onStack, current.PubKey)

	if current.PubKey == target {
		for _, k := range path {
			useful[k] = true
		}
		return
	}

	follows := make([]identity.Follow, len(current.Follows))
	copy(follows, current.Follows)
	sort.Slice(follows, func(i, j int) bool { return follows[i].Target.Less(follows[j].Target) })

	for _, f := range follows {
		targetNode, ok := g.GetNode(f.Target)
		if !ok {
			continue
		}
		if onStack[f.Target] {
			continue // would close a cycle; left for the P3 cycle breaker
		}
		nextPath := append(append([]identity.PublicKey{}, path...), f.Target)
		collectPathNodes(g, *targetNode, target, onStack, nextPath, useful)
	}
}
