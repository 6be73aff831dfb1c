/*
Package identity resolves the wellness app's session cookie to an
authenticated user id.

The cookie value is a signed token (HMAC, secret shared with the HTTP layer)
carrying the application session id; the session id is then looked up in the
shared session store to obtain the logical user id. WebSocket handshakes do
not carry the HTTP auth context automatically, so the relay resolves the raw
cookie through this package before admitting a connection.
*/
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt"
)

var (
	// ErrNoCredential indicates a missing or empty session cookie.
	ErrNoCredential = errors.New("identity: no session credential")

	// ErrBadCredential indicates a cookie that failed signature or expiry checks.
	ErrBadCredential = errors.New("identity: invalid session credential")

	// ErrSessionNotFound indicates a well-formed session id unknown to the
	// shared session store (expired or revoked).
	ErrSessionNotFound = errors.New("identity: session not found")
)

// Lookup resolves an application session id to a user id. The production
// implementation is backed by the shared Redis session store.
type Lookup interface {
	UserForSession(ctx context.Context, sessionID string) (string, error)
}

// Directory authenticates transport credentials for the relay and the HTTP
// control plane.
type Directory interface {
	// Resolve turns a raw session cookie value into an authenticated user id.
	Resolve(ctx context.Context, rawCookie string) (string, error)
}

// sessionClaims is the signed payload inside the session cookie.
type sessionClaims struct {
	jwt.StandardClaims

	// SID is the application session id, the key into the shared session store.
	SID string `json:"sid"`
}

// directory is the production Directory implementation.
type directory struct {
	secret string
	lookup Lookup
}

// NewDirectory builds a Directory that verifies cookies with the given shared
// secret and resolves session ids through lookup.
func NewDirectory(secret string, lookup Lookup) Directory {
	return &directory{
		secret: secret,
		lookup: lookup,
	}
}

// Resolve unsigns the cookie with the token library's parse API (never string
// surgery on the signed value), extracts the session id, and looks up the
// owning user. Any failure along the way is an auth failure.
func (d *directory) Resolve(ctx context.Context, rawCookie string) (string, error) {
	if rawCookie == "" {
		return "", ErrNoCredential
	}

	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(rawCookie, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(d.secret), nil
	})

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadCredential, err)
	}

	if !token.Valid || claims.SID == "" {
		return "", ErrBadCredential
	}

	userID, err := d.lookup.UserForSession(ctx, claims.SID)
	if err != nil {
		return "", err
	}

	return userID, nil
}

// SignSessionCookie produces a signed cookie value for the given application
// session id. The HTTP layer of the surrounding app issues these; the helper
// exists here so both sides agree on the format (and for tests).
func SignSessionCookie(sessionID, secret string, expiresAt int64) (string, error) {
	claims := &sessionClaims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expiresAt,
		},
		SID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(secret))
}
