package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFollowList_DedupsLastOccurrenceWins(t *testing.T) {
	owner := target(0)
	list := NewFollowList(owner, "me", []Follow{
		NewFollow(target(1), 0.2),
		NewFollow(target(1), 0.9),
		NewClassFollow(target(2), 0.1, "example.com"),
	})

	require.Len(t, list.Follows, 2)
	var kept Follow
	for _, f := range list.Follows {
		if f.Target == target(1) {
			kept = f
		}
	}
	assert.Equal(t, 0.9, kept.Weight)
}

func TestFollowList_AllKeysIncludesOwnerAndTargetsOnce(t *testing.T) {
	owner := target(0)
	list := NewFollowList(owner, "me", []Follow{
		NewFollow(target(1), 0.2),
		NewClassFollow(target(1), 0.3, "example.com"),
		NewFollow(target(2), 0.1),
	})
	keys := list.AllKeys()
	assert.ElementsMatch(t, []PublicKey{owner, target(1), target(2)}, keys)
}

func TestFollowList_JSONRoundTrip(t *testing.T) {
	owner := target(5)
	list := NewFollowList(owner, "alice", []Follow{
		NewFollow(target(1), 0.123456),
		NewClassFollow(target(2), -0.5, "example.com"),
	})

	data, err := list.ToJSON()
	require.NoError(t, err)

	parsed, err := ParseFollowListJSON(data)
	require.NoError(t, err)

	assert.Equal(t, list.Owner, parsed.Owner)
	assert.Equal(t, list.Alias, parsed.Alias)
	require.Len(t, parsed.Follows, 2)
	assert.InDelta(t, 0.123, parsed.Follows[0].Weight, 1e-9)
	assert.Equal(t, "example.com", parsed.Follows[1].Domain())
}

func TestParseFollowListJSON_RejectsMalformedTuple(t *testing.T) {
	_, err := ParseFollowListJSON([]byte(`{"pubkey": "` + target(1).String() + `", "alias": "", "follows": [[1, 2]]}`))
	assert.Error(t, err)
}
