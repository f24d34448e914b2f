package identity

import (
	"encoding/json"
	"fmt"
	"math"
)

// FollowList is a peer's signed collection of follows: (owner, alias,
// follows). Duplicate follows (same target+attribution) are collapsed on
// construction, last occurrence wins.
type FollowList struct {
	Owner   PublicKey
	Alias   string
	Follows []Follow
}

// NewFollowList builds a FollowList, deduplicating follows by (target,
// attribution) with last-occurrence-wins.
func NewFollowList(owner PublicKey, alias string, follows []Follow) FollowList {
	return FollowList{Owner: owner, Alias: alias, Follows: dedupFollows(follows)}
}

func dedupFollows(follows []Follow) []Follow {
	index := make(map[any]int, len(follows))
	result := make([]Follow, 0, len(follows))
	for _, f := range follows {
		key := f.Key()
		if i, ok := index[key]; ok {
			result[i] = f
			continue
		}
		index[key] = len(result)
		result = append(result, f)
	}
	return result
}

// AllKeys returns the owner's key plus every key targeted by a follow.
func (l FollowList) AllKeys() []PublicKey {
	seen := map[PublicKey]bool{l.Owner: true}
	keys := []PublicKey{l.Owner}
	for _, f := range l.Follows {
		if !seen[f.Target] {
			seen[f.Target] = true
			keys = append(keys, f.Target)
		}
	}
	return keys
}

func (l FollowList) String() string {
	name := l.Owner.String()
	if l.Alias != "" {
		name = fmt.Sprintf("%s (%s)", name, l.Alias)
	}
	out := fmt.Sprintf("List %s\n", name)
	for _, f := range l.Follows {
		out += fmt.Sprintf("- %s\n", f)
	}
	return out
}

// followListJSON mirrors the on-disk follow list schema:
//
//	{"pubkey": "...", "alias": "...", "follows": [["<target>", weight, "<domain>"?], ...]}
type followListJSON struct {
	PubKey  string  `json:"pubkey"`
	Alias   string  `json:"alias"`
	Follows [][]any `json:"follows"`
}

// ToJSON serializes the list into the persisted wire schema, rounding
// weights to 3 decimal places.
func (l FollowList) ToJSON() ([]byte, error) {
	doc := followListJSON{
		PubKey: l.Owner.String(),
		Alias:  l.Alias,
	}
	for _, f := range l.Follows {
		tuple := []any{f.Target.String(), roundWeight(f.Weight)}
		if f.Attribution != nil {
			tuple = append(tuple, *f.Attribution)
		}
		doc.Follows = append(doc.Follows, tuple)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ParseFollowListJSON decodes the persisted wire schema into a FollowList.
func ParseFollowListJSON(data []byte) (FollowList, error) {
	var doc followListJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return FollowList{}, fmt.Errorf("identity: malformed follow list: %w", err)
	}
	owner, err := ParsePublicKey(doc.PubKey)
	if err != nil {
		return FollowList{}, fmt.Errorf("identity: malformed follow list owner: %w", err)
	}

	follows := make([]Follow, 0, len(doc.Follows))
	for i, tuple := range doc.Follows {
		f, err := decodeFollowTuple(tuple)
		if err != nil {
			return FollowList{}, fmt.Errorf("identity: follow %d: %w", i, err)
		}
		follows = append(follows, f)
	}
	return NewFollowList(owner, doc.Alias, follows), nil
}

func decodeFollowTuple(tuple []any) (Follow, error) {
	if len(tuple) != 2 && len(tuple) != 3 {
		return Follow{}, fmt.Errorf("expected 2 or 3 elements, got %d", len(tuple))
	}
	targetText, ok := tuple[0].(string)
	if !ok {
		return Follow{}, fmt.Errorf("target must be a string")
	}
	target, err := ParsePublicKey(targetText)
	if err != nil {
		return Follow{}, err
	}
	weight, ok := tuple[1].(float64)
	if !ok {
		return Follow{}, fmt.Errorf("weight must be a number")
	}
	if len(tuple) == 3 {
		domain, ok := tuple[2].(string)
		if !ok {
			return Follow{}, fmt.Errorf("domain must be a string")
		}
		return NewClassFollow(target, weight, domain), nil
	}
	return NewFollow(target, weight), nil
}

func roundWeight(w float64) float64 {
	const scale = 1000.0
	return math.Round(w*scale) / scale
}
