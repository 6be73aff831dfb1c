package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryReplaceReturnsOldConnection(t *testing.T) {
	reg := NewConnectionRegistry()

	first := &Client{userID: "u1"}
	second := &Client{userID: "u1"}

	require.Nil(t, reg.Register(first))
	assert.Same(t, first, reg.Register(second), "registering a second connection returns the replaced one")
	assert.Same(t, second, reg.Get("u1"))
	assert.Equal(t, 1, reg.Count())
}

func TestRegistryReRegisterSameConnection(t *testing.T) {
	reg := NewConnectionRegistry()

	c := &Client{userID: "u1"}
	require.Nil(t, reg.Register(c))
	assert.Nil(t, reg.Register(c), "re-registering the same connection replaces nothing")
}

func TestRegistryUnregisterIgnoresStaleConnection(t *testing.T) {
	reg := NewConnectionRegistry()

	first := &Client{userID: "u1"}
	second := &Client{userID: "u1"}

	reg.Register(first)
	reg.Register(second)

	assert.False(t, reg.Unregister(first), "a superseded connection must not evict its replacement")
	assert.Same(t, second, reg.Get("u1"))

	assert.True(t, reg.Unregister(second))
	assert.Nil(t, reg.Get("u1"))
	assert.Equal(t, 0, reg.Count())
}

func TestRegistryAllSnapshot(t *testing.T) {
	reg := NewConnectionRegistry()

	a := &Client{userID: "u1"}
	b := &Client{userID: "u2"}
	reg.Register(a)
	reg.Register(b)

	all := reg.All()
	assert.Len(t, all, 2)
	assert.ElementsMatch(t, []*Client{a, b}, all)
}
