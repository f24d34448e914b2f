package prune

import (
	"github.com/pknames/pknames-go/pkg/graph"
	"github.com/pknames/pknames-go/pkg/identity"
)

// severAttributionChains is pass P4: if some node X is itself the target of
// an attribution edge (X is a class), then any attribution edge X itself
// asserts is an attribution chain - X is vouching for a class while being
// vouched for as one - and is dropped outright. List-follows from X are
// untouched; only X's own class-follows are severed.
func severAttributionChains(g graph.Graph) graph.Graph {
	isClass := make(map[identity.PublicKey]bool)
	for _, c := range g.GetClasses() {
		isClass[c.PubKey] = true
	}

	nodes := make([]graph.Node, len(g.Nodes))
	for i, n := range g.Nodes {
		if !isClass[n.PubKey] {
			nodes[i] = n
			continue
		}
		kept := n.Follows[:0:0]
		for _, f := range n.Follows {
			if !f.IsClassFollow() {
				kept = append(kept, f)
			}
		}
		nodes[i] = graph.Node{PubKey: n.PubKey, Alias: n.Alias, Follows: kept}
	}
	return graph.New(nodes)
}
