// Package predict implements the layered predictor: it treats a
// pruned, acyclic web-of-trust graph as a feed-forward network with ReLU
// hidden activations and a softmax class layer, and the optional trainer
// that back-propagates a correction into it.
package predict

import (
	"sort"

	"github.com/pknames/pknames-go/pkg/graph"
	"github.com/pknames/pknames-go/pkg/identity"
)

// layersWithPassThrough wraps Graph.GetLayers, inserting a pass-through node
// into every intermediate layer a cited node skips over. Without this, a
// node two-or-more hops ahead of its citer would have no weight matrix
// entry connecting them, since only adjacent layers are multiplied
// together.
func layersWithPassThrough(g graph.Graph) ([][]graph.Node, error) {
	layers, err := g.GetLayers()
	if err != nil {
		return nil, err
	}
	// Deep-copy so the pass-through insertion never mutates the caller's graph.
	out := make([][]graph.Node, len(layers))
	for i, l := range layers {
		cp := make([]graph.Node, len(l))
		for j, n := range l {
			cp[j] = n.Clone()
		}
		out[i] = cp
	}

	for i := 1; i < len(out); i++ {
		previous := out[i-1]
		current := out[i]

		present := make(map[identity.PublicKey]bool, len(current))
		for _, n := range current {
			present[n.PubKey] = true
		}

		for _, prevNode := range previous {
			for _, f := range prevNode.Follows {
				if present[f.Target] {
					continue
				}
				// A self-follow of weight 1.0 forwards whatever activation
				// reaches this temporary node, unchanged, to the next layer.
				temp := graph.NewNode(f.Target, "", []identity.Follow{identity.NewFollow(f.Target, 1.0)})
				current = append(current, temp)
				present[f.Target] = true
			}
		}

		sort.Slice(current, func(a, b int) bool { return current[a].PubKey.Less(current[b].PubKey) })
		out[i] = current
	}

	return out, nil
}
