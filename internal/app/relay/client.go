/*
Package relay bridges authenticated WebSocket connections and the matchmaking
engine.

This file defines the Client struct, representing one authenticated WebSocket
connection. It manages the connection lifecycle, the message communication
loops (ReadPump and WritePump), and inbound event dispatch into the Relay.
*/
package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"havenchat/internal/pkg/errs"
	"havenchat/internal/pkg/logx"
	"havenchat/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 8192

	// MaxContentBytes is the maximum allowed size for chat message content.
	MaxContentBytes = 5000

	// WsCloseCodeSessionKicked is a custom WebSocket Close Code (4000-4999
	// range) signaling that the connection was replaced by a newer one.
	WsCloseCodeSessionKicked = 4001
)

// Client represents one live authenticated WebSocket connection.
type Client struct {
	// the relay this connection belongs to.
	relay *Relay

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// authenticated user identity. Never sent to the partner.
	userID string

	// handle is the anonymous display name shown to the partner.
	handle string

	// mu guards sessionID, partnerID, and closed.
	mu sync.Mutex

	// sessionID and partnerID are both set or both empty: set while the
	// user is in an active chat session, empty while idle.
	sessionID string
	partnerID string

	// closed marks the send channel as no longer accepting events.
	closed bool

	// a buffered channel of serialized events waiting to be written out.
	send chan []byte

	closeOnce sync.Once

	// structured logger with client context.
	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded connection. The anonymous
// handle is generated here and lives as long as the connection.
func NewClient(relay *Relay, wsConn *websocket.Conn, userID string) *Client {
	handle, err := randx.AnonHandle()
	if err != nil {
		logx.Error(err, "Failed to generate anonymous handle, using fallback")
		handle = randx.HandlePrefix + "unknown"
	}

	clientLogger := logx.Logger().With().
		Str("client_id", userID).
		Str("handle", handle).
		Logger()

	return &Client{
		relay:  relay,
		conn:   wsConn,
		userID: userID,
		handle: handle,
		send:   make(chan []byte, 256),
		logger: clientLogger,
	}
}

// UserID returns the authenticated user id behind this connection.
func (c *Client) UserID() string {
	return c.userID
}

// Handle returns the anonymous display handle for this connection.
func (c *Client) Handle() string {
	return c.handle
}

// setSession binds the client to an active session and partner.
func (c *Client) setSession(sessionID, partnerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessionID = sessionID
	c.partnerID = partnerID
}

// clearSession unbinds the client if it still references the given session.
// Reports whether anything was cleared.
func (c *Client) clearSession(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionID != sessionID {
		return false
	}
	c.sessionID = ""
	c.partnerID = ""
	return true
}

// session returns the current session and partner ids, both empty when idle.
func (c *Client) session() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sessionID, c.partnerID
}

// ReadPump reads frames from the WebSocket connection, handles heartbeats,
// dispatches inbound events, and performs cleanup on connection closure.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		c.processInboundEvent(messageBytes)
	}
}

// cleanupOnDisconnect runs when ReadPump terminates for any reason.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.relay.handleDisconnect(c)

	if err := c.conn.Close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}

	c.closeSend()
}

// processInboundEvent parses a raw frame and dispatches it by event type.
// The switch covers the full inbound protocol; anything else is dropped.
func (c *Client) processInboundEvent(messageBytes []byte) {
	var inbound struct {
		Type    EventType       `json:"type"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}

	if err := json.Unmarshal(messageBytes, &inbound); err != nil {
		c.logger.Warn().Err(err).
			Bytes("message_bytes", messageBytes).
			Msg("Client sent invalid JSON")
		return
	}

	switch inbound.Type {
	case EventMessage:
		c.handleMessage(inbound.Payload)

	case EventTyping:
		c.relay.RouteTyping(c, true)

	case EventStopTyping:
		c.relay.RouteTyping(c, false)

	case EventEndSession:
		if customErr := c.relay.EndSessionFor(c.userID); customErr != nil {
			c.SendError(customErr)
		}

	default:
		c.logger.Warn().Str("event_type", string(inbound.Type)).Msg("Client sent unsupported event type")
	}
}

// handleMessage validates an inbound chat message and hands it to the relay.
func (c *Client) handleMessage(payloadBytes json.RawMessage) {
	var payload MessagePayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid message payload")
		return
	}

	if len(payload.Content) > MaxContentBytes {
		c.SendError(errs.NewError(errs.ErrMessageContentTooLong))
		return
	}

	if payload.Content == "" && len(payload.Attachments) == 0 {
		c.SendError(errs.NewError(errs.ErrMessageContentEmpty))
		return
	}

	if len(payload.Attachments) > 0 {
		sessionID, _ := c.session()
		if err := ValidateAttachments(sessionID, payload.Attachments); err != nil {
			c.SendError(err)
			return
		}
	}

	c.relay.RouteMessage(c, payload)
}

// WritePump writes queued events to the WebSocket connection and maintains
// the ping heartbeat.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one queued frame. Returns false when the
// WritePump loop should terminate.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a heartbeat Ping. Returns false on write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// queueEvent serializes the event and queues it for delivery. A full or
// closed queue drops the event: delivery is best-effort with no retry.
func (c *Client) queueEvent(ev Event) error {
	messageBytes, err := json.Marshal(ev)
	if err != nil {
		c.logger.Error().Err(err).Msg("Error marshaling event for client")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("client send queue closed")
	}

	select {
	case c.send <- messageBytes:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping event")
		return fmt.Errorf("client send queue full")
	}
}

// SendError queues an EventError for the client.
func (c *Client) SendError(err error) {
	var code int
	var message string

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		message = customErr.Message
	} else {
		code = errs.ErrUnknown
		message = fmt.Sprintf("Internal server error: %v", err)
	}

	ev := NewEvent(EventError, "", "", ErrorPayload{
		Code:    code,
		Message: message,
	})

	if err := c.queueEvent(ev); err != nil {
		c.logger.Error().Err(err).Msg("Failed to queue error event")
	}
}

// closeSend marks the queue closed and closes the channel, exactly once.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		close(c.send)
	})
}

// Kick closes the connection with a custom close frame indicating that the
// session was replaced by a newer connection.
func (c *Client) Kick(reason string) {
	c.logger.Warn().
		Int("close_code", WsCloseCodeSessionKicked).
		Str("reason", reason).
		Msg("Sending WS kick message and closing connection.")

	closeMessage := websocket.FormatCloseMessage(
		WsCloseCodeSessionKicked,
		reason,
	)

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(websocket.CloseMessage, closeMessage); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		c.logger.Warn().Err(err).Msg("Failed to send WS kick close message.")
	}

	c.closeSend()
}
