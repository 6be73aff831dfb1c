/*
Package relay bridges authenticated WebSocket connections and the matchmaking
engine.

This file defines the Relay itself: the coordinator that registers
connections, subscribes to match results, realizes matches into persisted
sessions, routes chat and typing events between the two parties, and tears
sessions down on disconnect or explicit leave.
*/
package relay

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"havenchat/internal/app/match"
	"havenchat/internal/app/store"
	"havenchat/internal/pkg/errs"
	"havenchat/internal/pkg/logx"
)

// persistTimeout bounds each best-effort persistence call.
const persistTimeout = 5 * time.Second

// Relay coordinates live connections, active sessions, and the matchmaker.
// It owns the ConnectionRegistry and SessionRegistry exclusively; nothing
// else mutates them.
type Relay struct {
	connections *ConnectionRegistry
	sessions    *SessionRegistry
	matchmaker  *match.Matchmaker
	store       store.SessionStore

	logger zerolog.Logger
}

// New constructs a Relay. The caller must also subscribe the relay to the
// matchmaker (`matchmaker.Subscribe(relay.HandleMatch)`) so match results
// flow in; the relay does not self-register to keep wiring explicit at the
// composition root.
func New(matchmaker *match.Matchmaker, sessionStore store.SessionStore) *Relay {
	return &Relay{
		connections: NewConnectionRegistry(),
		sessions:    NewSessionRegistry(),
		matchmaker:  matchmaker,
		store:       sessionStore,
		logger:      logx.Logger().With().Str("component", "Relay").Logger(),
	}
}

// Register records the client as its user's live connection, kicks any
// connection it replaced, and acknowledges with a connected event.
func (r *Relay) Register(c *Client) {
	if old := r.connections.Register(c); old != nil {
		r.logger.Warn().
			Str("user_id", c.userID).
			Msg("User already connected. Replacing old connection.")

		old.Kick("Session replaced by new connection. Check other tabs.")
	}

	ack := NewEvent(EventConnected, "", "", ConnectedPayload{
		UserID: c.userID,
		Handle: c.handle,
	})

	if err := c.queueEvent(ack); err != nil {
		r.logger.Error().Err(err).Str("user_id", c.userID).Msg("Failed to send connected ack")
	}

	r.logger.Info().
		Str("user_id", c.userID).
		Int("total_connections", r.connections.Count()).
		Msg("Client registered.")
}

// JoinQueue puts the user into the matchmaking queue. The user must hold a
// live registered connection: queuing an unreachable user would produce
// matches nobody can realize.
func (r *Relay) JoinQueue(userID string) *errs.CustomError {
	c := r.connections.Get(userID)
	if c == nil {
		return errs.NewError(errs.ErrNoLiveConnection)
	}

	if sessionID, _ := c.session(); sessionID != "" {
		return errs.NewError(errs.ErrAlreadyInSession)
	}

	r.matchmaker.AddUser(userID)

	// The eager match path may already have realized a match and cleared the
	// queue entry; the joined ack is still correct from the user's view.
	if err := c.queueEvent(NewEvent(EventQueueJoined, "", "", nil)); err != nil {
		r.logger.Debug().Err(err).Str("user_id", userID).Msg("Failed to send queue_joined ack")
	}

	return nil
}

// LeaveQueue removes the user from the matchmaking queue. Safe whether or
// not the user is queued.
func (r *Relay) LeaveQueue(userID string) {
	removed := r.matchmaker.RemoveUser(userID)

	if c := r.connections.Get(userID); c != nil && removed {
		if err := c.queueEvent(NewEvent(EventQueueLeft, "", "", nil)); err != nil {
			r.logger.Debug().Err(err).Str("user_id", userID).Msg("Failed to send queue_left ack")
		}
	}
}

// QueueStatus exposes the matchmaker's queue occupancy snapshot.
func (r *Relay) QueueStatus() match.QueueStatus {
	return r.matchmaker.Status()
}

// SessionFor returns the active session id the user is in, if any.
func (r *Relay) SessionFor(userID string) (string, bool) {
	c := r.connections.Get(userID)
	if c == nil {
		return "", false
	}

	sessionID, _ := c.session()
	return sessionID, sessionID != ""
}

// HandleMatch is the matchmaker subscriber. Both users were removed from the
// queue when the result was produced; if either side has no live connection
// the match is voided symmetrically and the surviving side returns to idle.
// Realization (persisted session creation) runs off the scheduling goroutine.
func (r *Relay) HandleMatch(res match.Result) {
	a := r.connections.Get(res.UserA)
	b := r.connections.Get(res.UserB)

	if a == nil || b == nil {
		// Belt and braces: FindMatch already removed both, but a re-join
		// racing the void must not leave a half-matched queue entry behind.
		r.matchmaker.RemoveUser(res.UserA)
		r.matchmaker.RemoveUser(res.UserB)

		r.logger.Info().
			Str("session_id", res.SessionID).
			Bool("user_a_live", a != nil).
			Bool("user_b_live", b != nil).
			Msg("Match voided: participant without live connection.")

		r.voidMatchFor(a)
		r.voidMatchFor(b)
		return
	}

	go r.realizeMatch(res, a, b)
}

// voidMatchFor tells a still-connected half of a voided match that it is
// back to idle. Nil clients are skipped.
func (r *Relay) voidMatchFor(c *Client) {
	if c == nil {
		return
	}

	voided := errs.NewError(errs.ErrMatchVoided)
	ev := NewEvent(EventError, "", "", ErrorPayload{
		Code:    voided.Code,
		Message: voided.Message,
	})

	if err := c.queueEvent(ev); err != nil {
		r.logger.Debug().Err(err).Str("user_id", c.userID).Msg("Failed to notify voided match")
	}
}

// realizeMatch persists the session and wires both connections into it.
// Because session creation suspends, the world may have changed by the time
// it resolves; both connections are re-validated before the session goes live.
func (r *Relay) realizeMatch(res match.Result, a, b *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if _, err := r.store.CreateSession(ctx, res.SessionID, res.UserA, res.UserB); err != nil {
		r.logger.Error().Err(err).
			Str("session_id", res.SessionID).
			Msg("Session creation failed. Voiding match.")

		r.voidMatchFor(a)
		r.voidMatchFor(b)
		return
	}

	// Re-validate: a participant may have disconnected or reconnected while
	// the create call was in flight.
	if r.connections.Get(res.UserA) != a || r.connections.Get(res.UserB) != b {
		r.logger.Info().
			Str("session_id", res.SessionID).
			Msg("Participant changed during session creation. Voiding match.")

		r.endSessionInStore(res.SessionID)
		r.voidMatchFor(r.connections.Get(res.UserA))
		r.voidMatchFor(r.connections.Get(res.UserB))
		return
	}

	a.setSession(res.SessionID, res.UserB)
	b.setSession(res.SessionID, res.UserA)
	r.sessions.Add(res.SessionID, res.UserA, res.UserB)

	r.notifyMatched(res.SessionID, a, b)
	r.notifyMatched(res.SessionID, b, a)

	r.logger.Info().
		Str("session_id", res.SessionID).
		Int("active_sessions", r.sessions.Count()).
		Msg("Session established.")
}

// notifyMatched sends the match_found and user_joined events to one side.
func (r *Relay) notifyMatched(sessionID string, to, partner *Client) {
	found := NewEvent(EventMatchFound, sessionID, "", MatchFoundPayload{
		PartnerHandle: partner.handle,
	})
	if err := to.queueEvent(found); err != nil {
		r.logger.Warn().Err(err).Str("user_id", to.userID).Msg("Failed to deliver match_found")
	}

	joined := NewEvent(EventUserJoined, sessionID, "", UserJoinedPayload{
		Handle: partner.handle,
	})
	if err := to.queueEvent(joined); err != nil {
		r.logger.Debug().Err(err).Str("user_id", to.userID).Msg("Failed to deliver user_joined")
	}
}

// RouteMessage persists and fans out a chat message. The sender always gets
// its own echo back as confirmation the relay processed the message; a
// partner whose connection is gone is dropped silently, with no queueing and
// no delivery receipt.
func (r *Relay) RouteMessage(c *Client, payload MessagePayload) {
	sessionID, partnerID := c.session()
	if sessionID == "" {
		c.SendError(errs.NewError(errs.ErrNoActiveSession))
		return
	}

	// Attachments are persisted as a key descriptor, never the bytes.
	content := payload.Content
	if len(payload.Attachments) > 0 {
		keys := make([]string, len(payload.Attachments))
		for i, a := range payload.Attachments {
			keys[i] = a.Key
		}
		content = strings.TrimSpace(content + "\n[attachments] " + strings.Join(keys, " "))
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if err := r.store.AppendMessage(ctx, sessionID, c.userID, content); err != nil {
			r.logger.Error().Err(err).
				Str("session_id", sessionID).
				Msg("Failed to persist chat message.")
		}
	}()

	ev := NewEvent(EventMessage, sessionID, c.handle, payload)

	if err := c.queueEvent(ev); err != nil {
		r.logger.Warn().Err(err).Str("user_id", c.userID).Msg("Failed to echo message to sender")
	}

	if partner := r.connections.Get(partnerID); partner != nil {
		if err := partner.queueEvent(ev); err != nil {
			r.logger.Debug().Err(err).Str("user_id", partnerID).Msg("Dropped message for unreachable partner")
		}
	}
}

// RouteTyping updates the typing state for the sender's session and forwards
// the signal to the partner only. Typing events are never persisted.
func (r *Relay) RouteTyping(c *Client, typing bool) {
	sessionID, partnerID := c.session()
	if sessionID == "" {
		return
	}

	r.sessions.SetTyping(sessionID, c.userID, typing)

	eventType := EventTyping
	if !typing {
		eventType = EventStopTyping
	}

	if partner := r.connections.Get(partnerID); partner != nil {
		if err := partner.queueEvent(NewEvent(eventType, sessionID, c.handle, nil)); err != nil {
			r.logger.Debug().Err(err).Str("user_id", partnerID).Msg("Dropped typing signal")
		}
	}
}

// EndSessionFor performs a deliberate session teardown for the user. The
// partner receives session_ended, distinguishing the purposeful leave from a
// dropped connection.
func (r *Relay) EndSessionFor(userID string) *errs.CustomError {
	c := r.connections.Get(userID)
	if c == nil {
		return errs.NewError(errs.ErrNoLiveConnection)
	}

	sessionID, _ := c.session()
	if sessionID == "" {
		return errs.NewError(errs.ErrNoActiveSession)
	}

	r.teardown(sessionID, userID, c.handle, EventSessionEnded)
	return nil
}

// handleDisconnect runs when a client's ReadPump terminates. The user leaves
// the queue unconditionally and any active session is torn down with a
// user_left to the partner. A connection already superseded by a newer one
// must not dequeue its replacement.
func (r *Relay) handleDisconnect(c *Client) {
	removed := r.connections.Unregister(c)

	if removed {
		r.matchmaker.RemoveUser(c.userID)
	}

	if sessionID, _ := c.session(); sessionID != "" {
		r.teardown(sessionID, c.userID, c.handle, EventUserLeft)
	}

	r.logger.Info().
		Str("user_id", c.userID).
		Bool("was_current", removed).
		Int("total_connections", r.connections.Count()).
		Msg("Client disconnected.")
}

// teardown dismantles a session: removes it (and its typing state) from the
// registry, clears both sides' session binding, notifies the remaining party
// with the given event type, and marks the session ended in the store.
// A second teardown of the same session id is a no-op.
func (r *Relay) teardown(sessionID, leaverID, leaverHandle string, eventType EventType) {
	userA, userB, ok := r.sessions.Remove(sessionID)
	if !ok {
		return
	}

	partnerID := userA
	if leaverID == userA {
		partnerID = userB
	}

	for _, uid := range []string{userA, userB} {
		if cl := r.connections.Get(uid); cl != nil {
			cl.clearSession(sessionID)
		}
	}

	if partner := r.connections.Get(partnerID); partner != nil {
		if err := partner.queueEvent(NewEvent(eventType, sessionID, leaverHandle, nil)); err != nil {
			r.logger.Debug().Err(err).Str("user_id", partnerID).Msg("Failed to notify partner of teardown")
		}
	}

	r.endSessionInStore(sessionID)

	r.logger.Info().
		Str("session_id", sessionID).
		Str("event_type", string(eventType)).
		Int("active_sessions", r.sessions.Count()).
		Msg("Session torn down.")
}

// endSessionInStore marks the session ended, asynchronously and best-effort.
func (r *Relay) endSessionInStore(sessionID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if err := r.store.EndSession(ctx, sessionID); err != nil {
			r.logger.Error().Err(err).
				Str("session_id", sessionID).
				Msg("Failed to mark session ended.")
		}
	}()
}

// Shutdown closes every live connection for a graceful process stop. Each
// closing connection runs its normal disconnect path, tearing down any
// session it was part of.
func (r *Relay) Shutdown() {
	clients := r.connections.All()
	r.logger.Info().Int("connections", len(clients)).Msg("Relay shutting down.")

	for _, c := range clients {
		c.closeSend()
	}
}
