package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pknames/pknames-go/pkg/graph"
	"github.com/pknames/pknames-go/pkg/identity"
)

func key(b byte) identity.PublicKey {
	var raw [32]byte
	raw[31] = b
	pk, err := identity.NewPublicKey(raw[:])
	if err != nil {
		panic(err)
	}
	return pk
}

// simpleGraph: root "me" trusts n1 at 1.0 and n2 at 0.5.
// n1 attributes example.com to d1 at -0.5 and d2 at 0.0. n2 attributes to
// d1 at 1.0 and d2 at -1.0. Expect P(d1) ~= 0.8176, P(d2) ~= 0.1824.
func simpleGraph() (g graph.Graph, me, n1, n2, d1, d2 identity.PublicKey) {
	me, n1, n2, d1, d2 = key(1), key(2), key(3), key(4), key(5)
	g = graph.New([]graph.Node{
		graph.NewNode(me, "", []identity.Follow{
			identity.NewFollow(n1, 1.0),
			identity.NewFollow(n2, 0.5),
		}),
		graph.NewNode(n1, "", []identity.Follow{
			identity.NewClassFollow(d1, -0.5, "example.com"),
			identity.NewClassFollow(d2, 0.0, "example.com"),
		}),
		graph.NewNode(n2, "", []identity.Follow{
			identity.NewClassFollow(d1, 1.0, "example.com"),
			identity.NewClassFollow(d2, -1.0, "example.com"),
		}),
		graph.NewNode(d1, "", nil),
		graph.NewNode(d2, "", nil),
	})
	return
}

func TestPredict_SimpleTwoClass(t *testing.T) {
	g, _, _, _, d1, d2 := simpleGraph()

	pred, err := Predict(g)
	require.NoError(t, err)

	v1, ok := pred.Value(d1)
	require.True(t, ok)
	v2, ok := pred.Value(d2)
	require.True(t, ok)

	assert.InDelta(t, 0.81757444, v1, 1e-6)
	assert.InDelta(t, 0.18242551, v2, 1e-6)
	assert.InDelta(t, 1.0, v1+v2, 1e-5)
}

// TestPredict_IntermediateHop: an extra list hop
// (n1 -> n3, a pure list-follow) between root and the class attributions.
func TestPredict_IntermediateHop(t *testing.T) {
	me, n1, n2, n3, d1, d2 := key(1), key(2), key(3), key(4), key(5), key(6)

	g := graph.New([]graph.Node{
		graph.NewNode(me, "", []identity.Follow{
			identity.NewFollow(n1, 1.0),
			identity.NewFollow(n2, 0.5),
		}),
		graph.NewNode(n1, "", []identity.Follow{identity.NewFollow(n3, 1.0)}),
		graph.NewNode(n2, "", []identity.Follow{identity.NewClassFollow(d2, -1.0, "example.com")}),
		graph.NewNode(n3, "", []identity.Follow{
			identity.NewClassFollow(d1, 1.0, "example.com"),
			identity.NewClassFollow(d2, 1.0, "example.com"),
		}),
		graph.NewNode(d1, "", nil),
		graph.NewNode(d2, "", nil),
	})

	pred, err := Predict(g)
	require.NoError(t, err)

	n1Power, ok := pred.Value(n1)
	require.True(t, ok)
	n2Power, ok := pred.Value(n2)
	require.True(t, ok)
	n3Power, ok := pred.Value(n3)
	require.True(t, ok)
	d1Prob, ok := pred.Value(d1)
	require.True(t, ok)
	d2Prob, ok := pred.Value(d2)
	require.True(t, ok)

	assert.InDelta(t, 1.0, n1Power, 1e-9)
	assert.InDelta(t, 0.5, n2Power, 1e-9)
	assert.InDelta(t, 1.0, n3Power, 1e-9)
	assert.InDelta(t, 0.81757444, d1Prob, 1e-6)
	assert.InDelta(t, 0.18242551, d2Prob, 1e-6)
}

func TestPredict_BestPicksArgmax(t *testing.T) {
	g, _, _, _, d1, _ := simpleGraph()

	pred, err := Predict(g)
	require.NoError(t, err)

	best, ok := pred.Best()
	require.True(t, ok)
	assert.Equal(t, d1, best.PubKey)
}

func TestPredict_EmptyGraphIsNoLists(t *testing.T) {
	_, err := Predict(graph.New(nil))
	assert.ErrorIs(t, err, ErrNoLists)
}

func TestPredict_WeightMonotone(t *testing.T) {
	me, n1, d1, d2 := key(1), key(2), key(3), key(4)

	build := func(d1Weight float64) graph.Graph {
		return graph.New([]graph.Node{
			graph.NewNode(me, "", []identity.Follow{identity.NewFollow(n1, 1.0)}),
			graph.NewNode(n1, "", []identity.Follow{
				identity.NewClassFollow(d1, d1Weight, "example.com"),
				identity.NewClassFollow(d2, 0.2, "example.com"),
			}),
			graph.NewNode(d1, "", nil),
			graph.NewNode(d2, "", nil),
		})
	}

	before, err := Predict(build(0.1))
	require.NoError(t, err)
	after, err := Predict(build(0.6))
	require.NoError(t, err)

	pBefore, _ := before.Value(d1)
	pAfter, _ := after.Value(d1)
	assert.Greater(t, pAfter, pBefore)
}

func TestTrain_MovesProbabilityTowardTarget(t *testing.T) {
	g, _, _, _, d1, d2 := simpleGraph()

	before, err := Predict(g)
	require.NoError(t, err)
	beforeD2, _ := before.Value(d2)

	trained, err := Train(g, d2, []float64{0.1, 1.0})
	require.NoError(t, err)

	after, err := Predict(trained)
	require.NoError(t, err)
	afterD2, _ := after.Value(d2)

	assert.Greater(t, afterD2, beforeD2, "training toward d2 should raise its probability")

	for _, n := range trained.Nodes {
		for _, f := range n.Follows {
			assert.GreaterOrEqual(t, f.Weight, -1.0)
			assert.LessOrEqual(t, f.Weight, 1.0)
		}
	}

	_ = d1
}

func TestTrain_UnknownClassErrors(t *testing.T) {
	g, _, _, _, _, _ := simpleGraph()
	_, err := Train(g, key(99), []float64{0.1, 1.0})
	assert.Error(t, err)
}
