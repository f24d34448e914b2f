// Package transform folds a set of follow-lists published by the querier and
// their peers into a single web-of-trust graph, synthesising placeholder
// nodes for any key that is cited but never itself published a list.
package transform

import (
	"github.com/pknames/pknames-go/pkg/graph"
	"github.com/pknames/pknames-go/pkg/identity"
)

// ListsToGraph builds one Graph from an unordered collection of follow
// lists. It never removes a follow - an adversarial list whose owner is
// unknown to the querier is still included; the pruner (pkg/prune) is
// responsible for severing it if unreachable.
func ListsToGraph(lists []identity.FollowList) graph.Graph {
	nodes := make([]graph.Node, 0, len(lists))
	known := make(map[identity.PublicKey]bool, len(lists))
	for _, list := range lists {
		nodes = append(nodes, graph.NewNode(list.Owner, list.Alias, list.Follows))
		known[list.Owner] = true
	}

	cited := make(map[identity.PublicKey]bool)
	for _, list := range lists {
		for _, f := range list.Follows {
			cited[f.Target] = true
		}
	}

	for key := range cited {
		if !known[key] {
			nodes = append(nodes, graph.NewNode(key, "", nil))
			known[key] = true
		}
	}

	return graph.New(nodes)
}
