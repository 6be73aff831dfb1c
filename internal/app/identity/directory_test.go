package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapLookup resolves session ids from a fixed map.
type mapLookup map[string]string

func (m mapLookup) UserForSession(_ context.Context, sessionID string) (string, error) {
	userID, ok := m[sessionID]
	if !ok {
		return "", ErrSessionNotFound
	}
	return userID, nil
}

const testSecret = "test-secret"

func futureExpiry() int64 {
	return time.Now().Add(time.Hour).Unix()
}

func TestResolveRoundtrip(t *testing.T) {
	dir := NewDirectory(testSecret, mapLookup{"sid-1": "user-42"})

	cookie, err := SignSessionCookie("sid-1", testSecret, futureExpiry())
	require.NoError(t, err)

	userID, err := dir.Resolve(context.Background(), cookie)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestResolveEmptyCookie(t *testing.T) {
	dir := NewDirectory(testSecret, mapLookup{})

	_, err := dir.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestResolveWrongSecret(t *testing.T) {
	dir := NewDirectory(testSecret, mapLookup{"sid-1": "user-42"})

	cookie, err := SignSessionCookie("sid-1", "some-other-secret", futureExpiry())
	require.NoError(t, err)

	_, err = dir.Resolve(context.Background(), cookie)
	assert.ErrorIs(t, err, ErrBadCredential)
}

func TestResolveGarbageToken(t *testing.T) {
	dir := NewDirectory(testSecret, mapLookup{})

	_, err := dir.Resolve(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrBadCredential)
}

func TestResolveExpiredToken(t *testing.T) {
	dir := NewDirectory(testSecret, mapLookup{"sid-1": "user-42"})

	cookie, err := SignSessionCookie("sid-1", testSecret, time.Now().Add(-time.Hour).Unix())
	require.NoError(t, err)

	_, err = dir.Resolve(context.Background(), cookie)
	assert.ErrorIs(t, err, ErrBadCredential)
}

func TestResolveUnknownSession(t *testing.T) {
	dir := NewDirectory(testSecret, mapLookup{})

	cookie, err := SignSessionCookie("sid-unknown", testSecret, futureExpiry())
	require.NoError(t, err)

	_, err = dir.Resolve(context.Background(), cookie)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
