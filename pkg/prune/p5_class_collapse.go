package prune

import (
	"github.com/pknames/pknames-go/pkg/graph"
	"github.com/pknames/pknames-go/pkg/identity"
)

// collapseClassOutEdges is pass P5: once a node has been cited as a class
// (is the target of an attribution edge), it is a leaf in the predictor's
// layering - any follow it asserts outward would make it a non-leaf and
// break the "final layer is all classes" invariant the predictor (pkg/predict)
// relies on. Strip every out-edge of a class node, attributed or not.
func collapseClassOutEdges(g graph.Graph) graph.Graph {
	isClass := make(map[identity.PublicKey]bool)
	for _, c := range g.GetClasses() {
		isClass[c.PubKey] = true
	}

	nodes := make([]graph.Node, len(g.Nodes))
	for i, n := range g.Nodes {
		if isClass[n.PubKey] {
			nodes[i] = graph.Node{PubKey: n.PubKey, Alias: n.Alias, Follows: nil}
			continue
		}
		nodes[i] = n
	}
	return graph.New(nodes)
}
