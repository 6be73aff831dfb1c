/*
Package relay bridges authenticated WebSocket connections and the matchmaking
engine: it registers connections, realizes matches into live sessions, routes
chat and typing traffic between the two parties, and tears sessions down.

This file defines the wire protocol: a closed set of tagged event types, an
envelope shared by every event, and one payload struct per type. Inbound
dispatch switches exhaustively over the set.
*/
package relay

import (
	"time"

	"havenchat/internal/pkg/randx"
)

// EventType tags every protocol event.
type EventType string

const (
	// EventConnected acknowledges a successful connection registration.
	EventConnected EventType = "connected"

	// EventQueueJoined confirms the user entered the matchmaking queue.
	EventQueueJoined EventType = "queue_joined"

	// EventQueueLeft confirms the user left the matchmaking queue.
	EventQueueLeft EventType = "queue_left"

	// EventMatchFound tells a queued user a session has been created for them.
	EventMatchFound EventType = "match_found"

	// EventUserJoined announces the partner's presence in a fresh session.
	EventUserJoined EventType = "user_joined"

	// EventMessage carries chat content, both inbound and outbound.
	EventMessage EventType = "message"

	// EventTyping signals the sender started typing. Inbound and outbound.
	EventTyping EventType = "typing"

	// EventStopTyping signals the sender stopped typing. Inbound and outbound.
	EventStopTyping EventType = "stop_typing"

	// EventEndSession is the inbound request to deliberately leave the chat.
	EventEndSession EventType = "end_session"

	// EventUserLeft tells the remaining party the partner's connection dropped.
	EventUserLeft EventType = "user_left"

	// EventSessionEnded tells the remaining party the partner left on purpose.
	EventSessionEnded EventType = "session_ended"

	// EventError carries a business error to the client.
	EventError EventType = "error"
)

// Event is the envelope shared by every outbound protocol event. Sender is
// the originator's anonymous handle; real user ids never appear here.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId,omitempty"`
	Sender    string    `json:"sender,omitempty"`
	Timestamp int64     `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// NewEvent builds an outbound event with a fresh id and current timestamp.
func NewEvent(eventType EventType, sessionID, sender string, payload any) Event {
	return Event{
		ID:        randx.MessageID(),
		Type:      eventType,
		SessionID: sessionID,
		Sender:    sender,
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	}
}

// ConnectedPayload accompanies EventConnected.
type ConnectedPayload struct {
	UserID string `json:"userId"`
	Handle string `json:"handle"`
}

// MatchFoundPayload accompanies EventMatchFound. The partner is identified by
// an anonymous handle only; real user ids never cross the wire.
type MatchFoundPayload struct {
	PartnerHandle string `json:"partnerHandle"`
}

// UserJoinedPayload accompanies EventUserJoined.
type UserJoinedPayload struct {
	Handle string `json:"handle"`
}

// MessagePayload accompanies EventMessage in both directions.
type MessagePayload struct {
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// ErrorPayload accompanies EventError.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
