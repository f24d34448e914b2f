package prune

import "github.com/pknames/pknames-go/pkg/graph"

// stripNonMatchingAttributions is pass P1: keep every list-follow, keep a
// class-follow only if its attribution equals the queried domain exactly.
// This reduces the graph to one domain's worth of evidence.
func stripNonMatchingAttributions(g graph.Graph, domain string) graph.Graph {
	nodes := make([]graph.Node, len(g.Nodes))
	for i, n := range g.Nodes {
		kept := n.Follows[:0:0]
		for _, f := range n.Follows {
			if !f.IsClassFollow() || f.Domain() == domain {
				kept = append(kept, f)
			}
		}
		nodes[i] = graph.Node{PubKey: n.PubKey, Alias: n.Alias, Follows: kept}
	}
	return graph.New(nodes)
}
