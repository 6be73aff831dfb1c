package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRegistryAddAndLookup(t *testing.T) {
	reg := NewSessionRegistry()

	reg.Add("s1", "u1", "u2")

	userA, userB, ok := reg.Participants("s1")
	require.True(t, ok)
	assert.Equal(t, "u1", userA)
	assert.Equal(t, "u2", userB)

	partner, ok := reg.PartnerOf("s1", "u1")
	require.True(t, ok)
	assert.Equal(t, "u2", partner)

	partner, ok = reg.PartnerOf("s1", "u2")
	require.True(t, ok)
	assert.Equal(t, "u1", partner)

	_, ok = reg.PartnerOf("s1", "stranger")
	assert.False(t, ok)

	assert.Equal(t, 1, reg.Count())
}

func TestSessionRegistryRemoveIsIdempotent(t *testing.T) {
	reg := NewSessionRegistry()

	reg.Add("s1", "u1", "u2")

	userA, userB, ok := reg.Remove("s1")
	require.True(t, ok)
	assert.Equal(t, "u1", userA)
	assert.Equal(t, "u2", userB)

	_, _, ok = reg.Remove("s1")
	assert.False(t, ok, "a second removal reports nothing to do")
	assert.Equal(t, 0, reg.Count())
}

func TestSessionRegistryTypingState(t *testing.T) {
	reg := NewSessionRegistry()

	reg.Add("s1", "u1", "u2")

	reg.SetTyping("s1", "u1", true)
	assert.Equal(t, []string{"u1"}, reg.TypingUsers("s1"))

	reg.SetTyping("s1", "u2", true)
	assert.ElementsMatch(t, []string{"u1", "u2"}, reg.TypingUsers("s1"))

	reg.SetTyping("s1", "u1", false)
	assert.Equal(t, []string{"u2"}, reg.TypingUsers("s1"))

	// Typing state dies with the session.
	reg.Remove("s1")
	assert.Empty(t, reg.TypingUsers("s1"))

	// Unknown sessions are ignored.
	reg.SetTyping("nope", "u1", true)
	assert.Empty(t, reg.TypingUsers("nope"))
}
