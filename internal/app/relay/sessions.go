/*
Package relay bridges authenticated WebSocket connections and the matchmaking
engine.

This file defines the SessionRegistry: the in-memory map of active two-party
sessions and the per-session set of currently-typing users. Typing state is
ephemeral and disappears with the session.
*/
package relay

import (
	"sync"
)

// activeSession is one live two-party chat session.
type activeSession struct {
	userA  string
	userB  string
	typing map[string]struct{}
}

// SessionRegistry tracks active sessions and their typing state.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*activeSession
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*activeSession),
	}
}

// Add records a new active session between the two users.
func (r *SessionRegistry) Add(sessionID, userA, userB string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[sessionID] = &activeSession{
		userA:  userA,
		userB:  userB,
		typing: make(map[string]struct{}),
	}
}

// Participants returns both user ids for the session.
func (r *SessionRegistry) Participants(sessionID string) (string, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return "", "", false
	}
	return s.userA, s.userB, true
}

// PartnerOf returns the other participant of the session.
func (r *SessionRegistry) PartnerOf(sessionID, userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return "", false
	}

	switch userID {
	case s.userA:
		return s.userB, true
	case s.userB:
		return s.userA, true
	default:
		return "", false
	}
}

// Remove deletes the session and its typing state, returning the participants.
// Removing an absent session reports ok=false and changes nothing, which makes
// repeated teardown a no-op.
func (r *SessionRegistry) Remove(sessionID string) (string, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return "", "", false
	}

	delete(r.sessions, sessionID)
	return s.userA, s.userB, true
}

// SetTyping marks whether the user is currently typing in the session.
// Unknown sessions are ignored.
func (r *SessionRegistry) SetTyping(sessionID, userID string, typing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return
	}

	if typing {
		s.typing[userID] = struct{}{}
	} else {
		delete(s.typing, userID)
	}
}

// TypingUsers returns the users currently typing in the session.
func (r *SessionRegistry) TypingUsers(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}

	users := make([]string, 0, len(s.typing))
	for id := range s.typing {
		users = append(users, id)
	}
	return users
}

// Count returns the number of active sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
