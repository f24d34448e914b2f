// Package prune implements the five-pass pipeline that turns a
// noisy, cyclic, adversarial web-of-trust graph into an acyclic DAG rooted
// at the querier and relevant only to the queried domain.
package prune

import (
	"github.com/pknames/pknames-go/pkg/graph"
	"github.com/pknames/pknames-go/pkg/identity"
)

// edgeKey identifies one directed edge uniquely, including its attribution,
// so that two follows from the same source to the same target but with
// different domain attributions are tracked separately (an owner may both
// list-follow and class-follow the same key).
type edgeKey struct {
	src, dst identity.PublicKey
	attr     string
	hasAttr  bool
}

func keyOf(of graph.OwnedFollow) edgeKey {
	if of.Follow.Attribution == nil {
		return edgeKey{src: of.Source, dst: of.Follow.Target}
	}
	return edgeKey{src: of.Source, dst: of.Follow.Target, attr: *of.Follow.Attribution, hasAttr: true}
}
