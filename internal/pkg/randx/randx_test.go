package randx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonHandleShape(t *testing.T) {
	handle, err := AnonHandle()
	require.NoError(t, err)

	assert.True(t, IsValidHandle(handle), "generated handle %q should be well-formed", handle)
	assert.Len(t, handle, len(HandlePrefix)+HandleSuffixLength)
}

func TestAnonHandlesDiffer(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		handle, err := AnonHandle()
		require.NoError(t, err)
		assert.False(t, seen[handle], "handle %q generated twice", handle)
		seen[handle] = true
	}
}

func TestIsValidHandle(t *testing.T) {
	assert.True(t, IsValidHandle("anon_x8Kq2M"))

	assert.False(t, IsValidHandle("x8Kq2M"), "missing prefix")
	assert.False(t, IsValidHandle("anon_x8Kq2"), "suffix too short")
	assert.False(t, IsValidHandle("anon_x8Kq2MM"), "suffix too long")
	assert.False(t, IsValidHandle("anon_x8Kq2!"), "suffix outside Base62")
	assert.False(t, IsValidHandle(""))
}

func TestSessionAndMessageIDs(t *testing.T) {
	assert.NotEqual(t, SessionID(), SessionID())
	assert.NotEqual(t, MessageID(), MessageID())
}
