package predict

import "github.com/pknames/pknames-go/pkg/graph"

// classLayerWeightScale widens softmax's dynamic range: the raw weight
// range [-1,+1] compresses too much once softmax is applied, so the final
// transition's weights are scaled up before the forward pass and divided
// back down before training writes them back to the graph. Left as a named constant
// rather than a configurable hyperparameter for now.
const classLayerWeightScale = 3.0

// matrix is a dense previous-layer x current-layer weight matrix, rows
// indexed by source node, columns by target node.
type matrix struct {
	rows, cols int
	data       []float64
}

func newMatrix(rows, cols int) matrix {
	return matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

func (m matrix) at(r, c int) float64 { return m.data[r*m.cols+c] }

func (m matrix) set(r, c int, v float64) { m.data[r*m.cols+c] = v }

// buildTransition constructs the dense weight matrix between two adjacent
// layers: entry (a,b) is the weight of previous[a]'s follow to current[b],
// or 0 if none. The final (class) layer's non-zero entries are widened by
// classLayerWeightScale.
func buildTransition(previous, current []graph.Node, isFinalLayer bool) matrix {
	m := newMatrix(len(previous), len(current))
	for a, prev := range previous {
		for b, cur := range current {
			f, ok := prev.GetFollow(cur.PubKey)
			if !ok {
				continue
			}
			w := f.ClampedWeight()
			if isFinalLayer {
				w *= classLayerWeightScale
			}
			m.set(a, b, w)
		}
	}
	return m
}

// buildTransitions returns one matrix per layer transition, plus a leading
// 1x1 identity matrix representing the constant input-to-root edge (the
// input vector is always [1.0]; root's own learning rate is always pinned
// to 0).
func buildTransitions(layers [][]graph.Node) []matrix {
	weights := make([]matrix, len(layers))
	identity := newMatrix(1, 1)
	identity.set(0, 0, 1.0)
	weights[0] = identity

	for i := 1; i < len(layers); i++ {
		isFinal := i == len(layers)-1
		weights[i] = buildTransition(layers[i-1], layers[i], isFinal)
	}
	return weights
}
