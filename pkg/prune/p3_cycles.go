package prune

import (
	"sort"

	"github.com/pknames/pknames-go/pkg/graph"
	"github.com/pknames/pknames-go/pkg/identity"
)

// breakCycles is pass P3: a greedy cycle breaker. DFS from root toward each
// class node, maintaining the current stack; when an edge would close back
// onto the stack, mark it pruned and do not traverse it, for this and every
// later DFS round. Cross-cycles between class searches share the pruned
// set, so an edge cut for one class stays cut for the rest.
//
// Intentionally the simplest workable cycle breaker; it is order-dependent
// and attackable - a hardened alternative is future work, not
// implemented here.
func breakCycles(g graph.Graph, root identity.PublicKey) graph.Graph {
	rootNode, ok := g.GetNode(root)
	if !ok {
		return g
	}

	pruned := map[edgeKey]bool{}
	for _, class := range g.GetClasses() {
		findCyclesDFS(g, *rootNode, class.PubKey, map[identity.PublicKey]bool{}, pruned)
	}

	nodes := make([]graph.Node, len(g.Nodes))
	for i, n := range g.Nodes {
		kept := n.Follows[:0:0]
		for _, f := range n.Follows {
			of := graph.OwnedFollow{Source: n.PubKey, Follow: f}
			if !pruned[keyOf(of)] {
				kept = append(kept, f)
			}
		}
		nodes[i] = graph.Node{PubKey: n.PubKey, Alias: n.Alias, Follows: kept}
	}
	return graph.New(nodes)
}

// findCyclesDFS walks toward target; onStack tracks the nodes currently
// on the recursion stack. An edge whose target is already on the stack
// closes a cycle - it is marked pruned and not traversed further.
func findCyclesDFS(
	g graph.Graph,
	current graph.Node,
	target identity.PublicKey,
	onStack map[identity.PublicKey]bool,
	pruned map[edgeKey]bool,
) {
	onStack[current.PubKey] = true
	defer delete(onStack, current.PubKey)

	if current.PubKey == target {
		return
	}

	follows := make([]identity.Follow, len(current.Follows))
	copy(follows, current.Follows)
	sort.Slice(follows, func(i, j int) bool { return follows[i].Target.Less(follows[j].Target) })

	for _, f := range follows {
		of := graph.OwnedFollow{Source: current.PubKey, Follow: f}
		k := keyOf(of)
		if pruned[k] {
			continue
		}
		targetNode, ok := g.GetNode(f.Target)
		if !ok {
			continue
		}
		if onStack[f.Target] {
			pruned[k] = true
			continue
		}
		findCyclesDFS(g, *targetNode, target, onStack, pruned)
	}
}
