package predict

import (
	"errors"
	"fmt"
	"math"

	"github.com/pknames/pknames-go/pkg/graph"
	"github.com/pknames/pknames-go/pkg/identity"
)

// ErrNoLists is returned when the graph has no nodes at all. pkg/prune
// returns an empty graph both when there are no lists and when no class
// for the queried domain is reachable from the root, so on a pruned graph
// this error covers both cases; Predict does not tell them apart.
var ErrNoLists = errors.New("predict: no lists in web of trust")

// ErrDomainNotInWebOfTrust is returned when the graph has nodes but layers
// into fewer than two layers, so there is no class layer below the root.
var ErrDomainNotInWebOfTrust = errors.New("predict: domain not in web of trust")

// NodePower is one non-class layer's activation: the post-ReLU value at a
// node, unbounded and non-negative.
type NodePower struct {
	PubKey identity.PublicKey
	Power  float64
}

// ClassProbability is one class layer's activation: a softmax probability.
type ClassProbability struct {
	PubKey      identity.PublicKey
	Probability float64
}

// Prediction is the full output contract of the forward pass: every non-class layer's powers plus the class
// layer's probability distribution.
type Prediction struct {
	Nodes   []NodePower
	Classes []ClassProbability
}

// Value looks up a prediction by key, searching classes first, then nodes.
func (p Prediction) Value(key identity.PublicKey) (float64, bool) {
	for _, c := range p.Classes {
		if c.PubKey == key {
			return c.Probability, true
		}
	}
	for _, n := range p.Nodes {
		if n.PubKey == key {
			return n.Power, true
		}
	}
	return 0, false
}

// Best returns the argmax class, ties broken by lexicographically smallest
// key.
func (p Prediction) Best() (ClassProbability, bool) {
	if len(p.Classes) == 0 {
		return ClassProbability{}, false
	}
	best := p.Classes[0]
	for _, c := range p.Classes[1:] {
		if c.Probability > best.Probability ||
			(c.Probability == best.Probability && c.PubKey.Less(best.PubKey)) {
			best = c
		}
	}
	return best, true
}

// Predict runs the forward pass over a pruned graph: layer, build the
// dense weight-matrix stack, propagate [1.0] through ReLU hidden
// transitions and a softmax final transition.
func Predict(g graph.Graph) (Prediction, error) {
	if len(g.Nodes) == 0 {
		return Prediction{}, ErrNoLists
	}

	layers, err := layersWithPassThrough(g)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}
	if len(layers) < 2 {
		// Root has no reachable class; pruning already collapsed everything
		// else away.
		return Prediction{}, ErrDomainNotInWebOfTrust
	}

	weights := buildTransitions(layers)
	activations := forward(weights)

	var pred Prediction
	for i, layer := range layers {
		isFinal := i == len(layers)-1
		for j, node := range layer {
			v := activations[i].data[j]
			if isFinal {
				pred.Classes = append(pred.Classes, ClassProbability{PubKey: node.PubKey, Probability: v})
			} else {
				pred.Nodes = append(pred.Nodes, NodePower{PubKey: node.PubKey, Power: v})
			}
		}
	}
	return pred, nil
}

// forward runs x <- relu(x . W) for every transition but the last, and
// x <- softmax(x . W) for the last, returning every layer's activation row
// vector.
func forward(weights []matrix) []vector {
	x := vector{data: []float64{1.0}}
	activations := make([]vector, len(weights))
	for i, w := range weights {
		z := x.matmul(w)
		if i == len(weights)-1 {
			x = softmax(z)
		} else {
			x = relu(z)
		}
		activations[i] = x
	}
	return activations
}

// vector is a dense 1xN activation row.
type vector struct{ data []float64 }

func (v vector) matmul(m matrix) vector {
	if len(v.data) != m.rows {
		panic(fmt.Sprintf("predict: dimension mismatch, vector len %d vs matrix rows %d", len(v.data), m.rows))
	}
	out := make([]float64, m.cols)
	for c := 0; c < m.cols; c++ {
		var sum float64
		for r := 0; r < m.rows; r++ {
			sum += v.data[r] * m.at(r, c)
		}
		out[c] = sum
	}
	return vector{data: out}
}

func relu(v vector) vector {
	out := make([]float64, len(v.data))
	for i, x := range v.data {
		if x > 0 {
			out[i] = x
		}
	}
	return vector{data: out}
}

func softmax(v vector) vector {
	max := v.data[0]
	for _, x := range v.data[1:] {
		if x > max {
			max = x
		}
	}
	var sum float64
	out := make([]float64, len(v.data))
	for i, x := range v.data {
		e := math.Exp(x - max)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return vector{data: out}
}
