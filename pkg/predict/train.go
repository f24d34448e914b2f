package predict

import (
	"fmt"

	"github.com/pknames/pknames-go/pkg/graph"
	"github.com/pknames/pknames-go/pkg/identity"
)

// Train performs one gradient step against a pruned graph, nudging the
// weights on every path so that correctClass's softmax probability moves
// toward 1.0. learningRates has one entry per real layer
// transition (i.e. len(layers)-1 entries) - the virtual root transition's
// rate is always pinned to 0 and never supplied by the caller.
//
// Train is pure: it returns a new graph with updated follow weights and
// never touches disk. Reconciling those updated weights back onto the
// original, unpruned on-disk lists (keyed by source, target and
// attribution, since pruning may have renamed nothing but did drop edges)
// is the caller's responsibility - see pkg/config's list writer.
func Train(g graph.Graph, correctClass identity.PublicKey, learningRates []float64) (graph.Graph, error) {
	layers, err := layersWithPassThrough(g)
	if err != nil {
		return graph.Graph{}, fmt.Errorf("predict: train: %w", err)
	}
	if len(layers) < 2 {
		return graph.Graph{}, ErrDomainNotInWebOfTrust
	}
	if len(learningRates) != len(layers)-1 {
		return graph.Graph{}, fmt.Errorf("predict: train: got %d learning rates, want %d (one per transition)", len(learningRates), len(layers)-1)
	}

	targetIndex := -1
	for i, n := range layers[len(layers)-1] {
		if n.PubKey == correctClass {
			targetIndex = i
			break
		}
	}
	if targetIndex < 0 {
		return graph.Graph{}, fmt.Errorf("predict: train: %s is not a class in this graph", correctClass)
	}

	weights := buildTransitions(layers)
	L := len(weights)

	// Forward pass without a final softmax: the loss needs raw logits.
	z := make([]vector, L)
	a := make([]vector, L)
	x := vector{data: []float64{1.0}}
	for i := 0; i < L; i++ {
		z[i] = x.matmul(weights[i])
		if i == L-1 {
			a[i] = z[i]
		} else {
			a[i] = relu(z[i])
		}
		x = a[i]
	}

	// Softmax-cross-entropy's combined gradient against logits z[L-1].
	probs := softmax(z[L-1])
	dz := make([]vector, L)
	dLast := make([]float64, len(probs.data))
	for i, p := range probs.data {
		dLast[i] = p
	}
	dLast[targetIndex] -= 1.0
	dz[L-1] = vector{data: dLast}

	// lrs[i] is the learning rate applied to transition i (weights[i]);
	// lrs[0] stays 0 implicitly since the loop below never touches it.
	lrs := make([]float64, L)
	copy(lrs[1:], learningRates)
	lrs[L-1] *= classLayerWeightScale

	newWeights := make([]matrix, L)
	newWeights[0] = weights[0]

	for i := L - 1; i >= 1; i-- {
		prevAct := a[i-1]
		lr := lrs[i]

		grad := outer(prevAct, dz[i])
		grad = scaleClip(grad, lr)

		updated := newMatrix(weights[i].rows, weights[i].cols)
		for idx := range weights[i].data {
			w := weights[i].data[idx] - grad.data[idx]
			if i == L-1 {
				w /= classLayerWeightScale
			}
			updated.data[idx] = clamp(w, -1.0, 1.0)
		}
		newWeights[i] = updated

		if i > 1 {
			back := dz[i].matmul(transpose(weights[i]))
			dz[i-1] = reluGrad(back, z[i-1])
		}
	}

	return writeBackWeights(g, layers, newWeights), nil
}

// outer computes the outer product of a row vector and a row vector,
// producing the matrix gradient for a linear layer y = x . W.
func outer(x, dy vector) matrix {
	m := newMatrix(len(x.data), len(dy.data))
	for r, xv := range x.data {
		for c, dv := range dy.data {
			m.set(r, c, xv*dv)
		}
	}
	return m
}

func scaleClip(m matrix, lr float64) matrix {
	out := newMatrix(m.rows, m.cols)
	for i, v := range m.data {
		scaled := v * lr
		out.data[i] = clamp(scaled, -lr, lr)
	}
	return out
}

func transpose(m matrix) matrix {
	out := newMatrix(m.cols, m.rows)
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			out.set(c, r, m.at(r, c))
		}
	}
	return out
}

func reluGrad(dy vector, z vector) vector {
	out := make([]float64, len(dy.data))
	for i := range out {
		if z.data[i] > 0 {
			out[i] = dy.data[i]
		}
	}
	return vector{data: out}
}

func clamp(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

// writeBackWeights applies the trained matrices to a copy of g, skipping
// any matrix entry with no corresponding real follow - pass-through nodes
// synthesise a self edge purely to carry activations between layers and
// must never be mistaken for a graph edge.
func writeBackWeights(g graph.Graph, layers [][]graph.Node, weights []matrix) graph.Graph {
	out := g
	nodes := make([]graph.Node, len(out.Nodes))
	for i, n := range out.Nodes {
		nodes[i] = n.Clone()
	}
	out.Nodes = nodes

	for i := 1; i < len(layers); i++ {
		previous := layers[i-1]
		current := layers[i]
		w := weights[i]
		for a, prev := range previous {
			for b, cur := range current {
				follow := out.GetFollowMut(prev.PubKey, cur.PubKey)
				if follow == nil {
					continue
				}
				follow.Weight = w.at(a, b)
			}
		}
	}
	return out
}
