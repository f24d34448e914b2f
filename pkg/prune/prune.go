package prune

import (
	"github.com/pknames/pknames-go/pkg/graph"
	"github.com/pknames/pknames-go/pkg/identity"
)

// Prune runs the full five-pass pipeline that turns a raw web-of-trust graph
// into the acyclic, single-domain, leaf-classed DAG the predictor (pkg/predict)
// requires: strip attributions for other domains, drop everything unreachable
// from root, break cycles, sever attribution chains, collapse class out-edges,
// then drop whatever the last two passes made unreachable again.
//
// The result always validates as acyclic: GetLayers on it will not return
// ErrCyclePresent.
func Prune(g graph.Graph, root identity.PublicKey, domain string) graph.Graph {
	g = stripNonMatchingAttributions(g, domain)
	g = removeUnreachable(g, root)
	g = breakCycles(g, root)
	g = severAttributionChains(g)
	g = collapseClassOutEdges(g)
	g = removeUnreachable(g, root)
	return g
}
