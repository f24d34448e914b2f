package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pknames/pknames-go/pkg/identity"
)

func key(b byte) identity.PublicKey {
	var k identity.PublicKey
	k[31] = b
	return k
}

func TestGraph_NewSortsNodes(t *testing.T) {
	g := New([]Node{
		NewNode(key(3), "", nil),
		NewNode(key(1), "", nil),
		NewNode(key(2), "", nil),
	})
	require.Len(t, g.Nodes, 3)
	assert.Equal(t, key(1), g.Nodes[0].PubKey)
	assert.Equal(t, key(2), g.Nodes[1].PubKey)
	assert.Equal(t, key(3), g.Nodes[2].PubKey)
}

func TestGraph_GetNode(t *testing.T) {
	g := New([]Node{NewNode(key(1), "", nil), NewNode(key(2), "", nil)})
	n, ok := g.GetNode(key(1))
	require.True(t, ok)
	assert.Equal(t, key(1), n.PubKey)

	_, ok = g.GetNode(key(9))
	assert.False(t, ok)
}

func TestGraph_ValidateRejectsDuplicateKeysAndDanglingEdges(t *testing.T) {
	valid := New([]Node{
		NewNode(key(1), "", []identity.Follow{identity.NewFollow(key(2), 0.5)}),
		NewNode(key(2), "", nil),
	})
	assert.NoError(t, valid.Validate())

	dangling := New([]Node{
		NewNode(key(1), "", []identity.Follow{identity.NewFollow(key(9), 0.5)}),
	})
	assert.Error(t, dangling.Validate())

	duplicate := Graph{Nodes: []Node{NewNode(key(1), "", nil), NewNode(key(1), "", nil)}}
	assert.Error(t, duplicate.Validate())
}

func TestGraph_GetClassesDedupsAcrossAsserters(t *testing.T) {
	g := New([]Node{
		NewNode(key(1), "", []identity.Follow{
			identity.NewClassFollow(key(3), 0.5, "example.com"),
			identity.NewFollow(key(2), 0.1),
		}),
		NewNode(key(2), "", []identity.Follow{
			identity.NewClassFollow(key(3), 0.8, "example.com"),
		}),
		NewNode(key(3), "", nil),
	})
	classes := g.GetClasses()
	require.Len(t, classes, 1)
	assert.Equal(t, key(3), classes[0].PubKey)
}

func TestGraph_RemoveFollowAndRemoveNode(t *testing.T) {
	g := New([]Node{
		NewNode(key(1), "", []identity.Follow{identity.NewFollow(key(2), 0.5)}),
		NewNode(key(2), "", nil),
	})
	assert.True(t, g.RemoveFollow(key(1), key(2)))
	_, ok := g.GetFollow(key(1), key(2))
	assert.False(t, ok)

	assert.True(t, g.RemoveNode(key(2)))
	_, ok = g.GetNode(key(2))
	assert.False(t, ok)
}

func TestGraph_GetLayersPeelsSinksIntoTopologicalOrder(t *testing.T) {
	// root -> mid -> class
	g := New([]Node{
		NewNode(key(1), "", []identity.Follow{identity.NewFollow(key(2), 1.0)}),
		NewNode(key(2), "", []identity.Follow{identity.NewClassFollow(key(3), 1.0, "example.com")}),
		NewNode(key(3), "", nil),
	})
	layers, err := g.GetLayers()
	require.NoError(t, err)
	require.Len(t, layers, 3)
	assert.Equal(t, key(1), layers[0][0].PubKey)
	assert.Equal(t, key(2), layers[1][0].PubKey)
	assert.Equal(t, key(3), layers[2][0].PubKey)
}

func TestGraph_GetLayersReturnsErrCyclePresent(t *testing.T) {
	g := New([]Node{
		NewNode(key(1), "", []identity.Follow{identity.NewFollow(key(2), 1.0)}),
		NewNode(key(2), "", []identity.Follow{identity.NewFollow(key(1), 1.0)}),
	})
	_, err := g.GetLayers()
	assert.ErrorIs(t, err, ErrCyclePresent)
}

func TestGraph_DepthMatchesLayerCount(t *testing.T) {
	g := New([]Node{
		NewNode(key(1), "", []identity.Follow{identity.NewFollow(key(2), 1.0)}),
		NewNode(key(2), "", nil),
	})
	depth, err := g.Depth()
	require.NoError(t, err)
	assert.Equal(t, 2, depth)
}
