package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func target(b byte) PublicKey {
	var k PublicKey
	k[31] = b
	return k
}

func TestFollow_ListVsClass(t *testing.T) {
	list := NewFollow(target(1), 0.5)
	assert.False(t, list.IsClassFollow())
	assert.Equal(t, "", list.Domain())

	class := NewClassFollow(target(1), 0.5, "example.com")
	assert.True(t, class.IsClassFollow())
	assert.Equal(t, "example.com", class.Domain())
}

func TestFollow_ClampedWeight(t *testing.T) {
	assert.Equal(t, 1.0, NewFollow(target(1), 5.0).ClampedWeight())
	assert.Equal(t, -1.0, NewFollow(target(1), -5.0).ClampedWeight())
	assert.Equal(t, 0.3, NewFollow(target(1), 0.3).ClampedWeight())
}

func TestFollow_EqualIgnoresWeight(t *testing.T) {
	a := NewFollow(target(1), 0.1)
	b := NewFollow(target(1), 0.9)
	assert.True(t, a.Equal(b))

	c := NewClassFollow(target(1), 0.1, "example.com")
	assert.False(t, a.Equal(c))

	d := NewClassFollow(target(1), 0.9, "example.com")
	assert.True(t, c.Equal(d))

	e := NewClassFollow(target(1), 0.1, "other.com")
	assert.False(t, c.Equal(e))
}

func TestFollow_KeyDistinguishesListAndClassTowardSameTarget(t *testing.T) {
	list := NewFollow(target(1), 0.1)
	class := NewClassFollow(target(1), 0.1, "example.com")
	assert.NotEqual(t, list.Key(), class.Key())
}
