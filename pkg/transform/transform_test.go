package transform

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

func TestListsToGraph_SynthesizesPlaceholderNodesForCitedUnknownKeys(t *testing.T) {
	me := identity.NewFollowList(key(1), "me", []identity.Follow{
		identity.NewFollow(key(2), 0.5),
	})
	g := ListsToGraph([]identity.FollowList{me})

	require.Len(t, g.Nodes, 2)
	placeholder, ok := g.GetNode(key(2))
	require.True(t, ok)
	assert.Empty(t, placeholder.Alias)
	assert.Empty(t, placeholder.Follows)
}

func TestListsToGraph_DoesNotDuplicateKeysWithBothAListAndACitation(t *testing.T) {
	me := identity.NewFollowList(key(1), "me", []identity.Follow{
		identity.NewFollow(key(2), 0.5),
	})
	peer := identity.NewFollowList(key(2), "peer", []identity.Follow{
		identity.NewClassFollow(key(3), 1.0, "example.com"),
	})
	g := ListsToGraph([]identity.FollowList{me, peer})

	require.Len(t, g.Nodes, 3)
	peerNode, ok := g.GetNode(key(2))
	require.True(t, ok)
	assert.Equal(t, "peer", peerNode.Alias)
	require.Len(t, peerNode.Follows, 1)
}

func TestListsToGraph_PreservesUnreachableListsForThePrunerToHandle(t *testing.T) {
	me := identity.NewFollowList(key(1), "me", nil)
	unrelated := identity.NewFollowList(key(9), "stranger", []identity.Follow{
		identity.NewClassFollow(key(3), 1.0, "example.com"),
	})
	g := ListsToGraph([]identity.FollowList{me, unrelated})

	require.Len(t, g.Nodes, 3)
	_, ok := g.GetNode(key(9))
	assert.True(t, ok)
}

func TestListsToGraph_EmptyInputYieldsEmptyGraph(t *testing.T) {
	g := ListsToGraph(nil)
	assert.Empty(t, g.Nodes)
}
