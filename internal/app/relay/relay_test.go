package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"havenchat/internal/app/match"
	"havenchat/internal/app/store"
	"havenchat/internal/pkg/errs"
)

// fakeSessionStore records persistence calls in memory.
type fakeSessionStore struct {
	mu        sync.Mutex
	created   []store.Session
	messages  []string
	ended     []string
	createErr error
}

func (f *fakeSessionStore) CreateSession(_ context.Context, sessionID, userA, userB string) (store.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return store.Session{}, f.createErr
	}

	sess := store.Session{ID: sessionID, UserA: userA, UserB: userB, Status: store.StatusActive}
	f.created = append(f.created, sess)
	return sess, nil
}

func (f *fakeSessionStore) AppendMessage(_ context.Context, sessionID, senderID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, content)
	return nil
}

func (f *fakeSessionStore) EndSession(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = append(f.ended, sessionID)
	return nil
}

func (f *fakeSessionStore) GetSession(_ context.Context, sessionID string) (store.Session, error) {
	return store.Session{}, errors.New("not implemented")
}

func (f *fakeSessionStore) AbandonActiveSessions(_ context.Context) (int64, error) {
	return 0, nil
}

func (f *fakeSessionStore) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func (f *fakeSessionStore) endedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ended)
}

func (f *fakeSessionStore) messageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func newTestRelay(t *testing.T) (*Relay, *fakeSessionStore) {
	t.Helper()

	// The matchmaker is never started: tests drive the relay directly.
	m := match.New(match.Config{
		MatchTick:     time.Hour,
		MatchWindow:   time.Hour,
		RebalanceTick: time.Hour,
	})

	fs := &fakeSessionStore{}
	return New(m, fs), fs
}

// receivedEvent mirrors the outbound envelope with a raw payload for
// per-type decoding.
type receivedEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	SessionID string          `json:"sessionId"`
	Sender    string          `json:"sender"`
	Payload   json.RawMessage `json:"payload"`
}

// nextEvent reads one queued event off the client's send channel.
func nextEvent(t *testing.T, c *Client) receivedEvent {
	t.Helper()

	select {
	case raw, ok := <-c.send:
		require.True(t, ok, "send channel closed while an event was expected")

		var ev receivedEvent
		require.NoError(t, json.Unmarshal(raw, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for an event")
		return receivedEvent{}
	}
}

// noEvent asserts that nothing is queued for the client.
func noEvent(t *testing.T, c *Client) {
	t.Helper()

	select {
	case raw := <-c.send:
		t.Fatalf("unexpected event queued: %s", raw)
	default:
	}
}

// connect registers a client and consumes its connected ack.
func connect(t *testing.T, r *Relay, userID string) *Client {
	t.Helper()

	c := NewClient(r, nil, userID)
	r.Register(c)

	ack := nextEvent(t, c)
	require.Equal(t, EventConnected, ack.Type)
	return c
}

// pair puts two connected clients into an established session.
func pair(t *testing.T, r *Relay, a, b *Client) string {
	t.Helper()

	r.HandleMatch(match.Result{UserA: a.userID, UserB: b.userID, SessionID: "sess-1"})

	for _, c := range []*Client{a, b} {
		found := nextEvent(t, c)
		require.Equal(t, EventMatchFound, found.Type)
		joined := nextEvent(t, c)
		require.Equal(t, EventUserJoined, joined.Type)
	}

	return "sess-1"
}

func TestRegisterSendsConnectedAck(t *testing.T) {
	r, _ := newTestRelay(t)

	c := NewClient(r, nil, "u1")
	r.Register(c)

	ack := nextEvent(t, c)
	assert.Equal(t, EventConnected, ack.Type)

	var payload ConnectedPayload
	require.NoError(t, json.Unmarshal(ack.Payload, &payload))
	assert.Equal(t, "u1", payload.UserID)
	assert.Equal(t, c.Handle(), payload.Handle)
}

func TestJoinQueueRequiresLiveConnection(t *testing.T) {
	r, _ := newTestRelay(t)

	customErr := r.JoinQueue("ghost")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrNoLiveConnection, customErr.Code)
}

func TestJoinQueueRejectsUserInSession(t *testing.T) {
	r, _ := newTestRelay(t)

	a := connect(t, r, "u1")
	b := connect(t, r, "u2")
	pair(t, r, a, b)

	customErr := r.JoinQueue("u1")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrAlreadyInSession, customErr.Code)
}

func TestJoinAndLeaveQueue(t *testing.T) {
	r, _ := newTestRelay(t)

	c := connect(t, r, "u1")

	require.Nil(t, r.JoinQueue("u1"))
	joined := nextEvent(t, c)
	assert.Equal(t, EventQueueJoined, joined.Type)
	assert.Equal(t, 1, r.QueueStatus().Total)

	r.LeaveQueue("u1")
	left := nextEvent(t, c)
	assert.Equal(t, EventQueueLeft, left.Type)
	assert.Equal(t, 0, r.QueueStatus().Total)

	// Leaving again is silent: nothing was removed.
	r.LeaveQueue("u1")
	noEvent(t, c)
}

func TestMatchRealization(t *testing.T) {
	r, fs := newTestRelay(t)

	a := connect(t, r, "u1")
	b := connect(t, r, "u2")

	r.HandleMatch(match.Result{UserA: "u1", UserB: "u2", SessionID: "sess-1"})

	foundA := nextEvent(t, a)
	require.Equal(t, EventMatchFound, foundA.Type)
	assert.Equal(t, "sess-1", foundA.SessionID)

	var payloadA MatchFoundPayload
	require.NoError(t, json.Unmarshal(foundA.Payload, &payloadA))
	assert.Equal(t, b.Handle(), payloadA.PartnerHandle, "each side sees the partner's anonymous handle")

	foundB := nextEvent(t, b)
	var payloadB MatchFoundPayload
	require.NoError(t, json.Unmarshal(foundB.Payload, &payloadB))
	assert.Equal(t, a.Handle(), payloadB.PartnerHandle)

	require.Equal(t, EventUserJoined, nextEvent(t, a).Type)
	require.Equal(t, EventUserJoined, nextEvent(t, b).Type)

	sid, ok := r.SessionFor("u1")
	require.True(t, ok)
	assert.Equal(t, "sess-1", sid)

	assert.Equal(t, 1, fs.createdCount())
}

func TestMatchVoidedWhenParticipantGone(t *testing.T) {
	r, fs := newTestRelay(t)

	a := connect(t, r, "u1")

	r.HandleMatch(match.Result{UserA: "u1", UserB: "u2", SessionID: "sess-1"})

	ev := nextEvent(t, a)
	require.Equal(t, EventError, ev.Type)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, errs.ErrMatchVoided, payload.Code)

	_, ok := r.SessionFor("u1")
	assert.False(t, ok, "a voided match must not leave a session behind")
	assert.Equal(t, 0, fs.createdCount())
}

func TestMatchVoidedWhenSessionCreationFails(t *testing.T) {
	r, fs := newTestRelay(t)
	fs.createErr = errors.New("db down")

	a := connect(t, r, "u1")
	b := connect(t, r, "u2")

	r.HandleMatch(match.Result{UserA: "u1", UserB: "u2", SessionID: "sess-1"})

	for _, c := range []*Client{a, b} {
		ev := nextEvent(t, c)
		require.Equal(t, EventError, ev.Type)

		var payload ErrorPayload
		require.NoError(t, json.Unmarshal(ev.Payload, &payload))
		assert.Equal(t, errs.ErrMatchVoided, payload.Code)
	}

	_, ok := r.SessionFor("u1")
	assert.False(t, ok)
}

func TestRouteMessageEchoesAndForwards(t *testing.T) {
	r, fs := newTestRelay(t)

	a := connect(t, r, "u1")
	b := connect(t, r, "u2")
	sid := pair(t, r, a, b)

	r.RouteMessage(a, MessagePayload{Content: "hello"})

	echo := nextEvent(t, a)
	assert.Equal(t, EventMessage, echo.Type)
	assert.Equal(t, sid, echo.SessionID)
	assert.Equal(t, a.Handle(), echo.Sender)

	forwarded := nextEvent(t, b)
	assert.Equal(t, EventMessage, forwarded.Type)
	assert.Equal(t, a.Handle(), forwarded.Sender, "the partner sees the handle, never the user id")

	var payload MessagePayload
	require.NoError(t, json.Unmarshal(forwarded.Payload, &payload))
	assert.Equal(t, "hello", payload.Content)

	require.Eventually(t, func() bool {
		return fs.messageCount() == 1
	}, time.Second, 10*time.Millisecond, "the message should be persisted")
}

func TestRouteMessageWithoutSession(t *testing.T) {
	r, _ := newTestRelay(t)

	a := connect(t, r, "u1")

	r.RouteMessage(a, MessagePayload{Content: "hello"})

	ev := nextEvent(t, a)
	require.Equal(t, EventError, ev.Type)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, errs.ErrNoActiveSession, payload.Code)
}

func TestRouteTypingForwardsToPartnerOnly(t *testing.T) {
	r, _ := newTestRelay(t)

	a := connect(t, r, "u1")
	b := connect(t, r, "u2")
	pair(t, r, a, b)

	r.RouteTyping(a, true)

	ev := nextEvent(t, b)
	assert.Equal(t, EventTyping, ev.Type)
	assert.Equal(t, a.Handle(), ev.Sender)
	noEvent(t, a)

	r.RouteTyping(a, false)
	assert.Equal(t, EventStopTyping, nextEvent(t, b).Type)
}

func TestEndSessionNotifiesPartner(t *testing.T) {
	r, fs := newTestRelay(t)

	a := connect(t, r, "u1")
	b := connect(t, r, "u2")
	sid := pair(t, r, a, b)

	require.Nil(t, r.EndSessionFor("u1"))

	ev := nextEvent(t, b)
	assert.Equal(t, EventSessionEnded, ev.Type)
	assert.Equal(t, sid, ev.SessionID)

	_, ok := r.SessionFor("u1")
	assert.False(t, ok)
	_, ok = r.SessionFor("u2")
	assert.False(t, ok)

	customErr := r.EndSessionFor("u1")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrNoActiveSession, customErr.Code)

	require.Eventually(t, func() bool {
		return fs.endedCount() == 1
	}, time.Second, 10*time.Millisecond, "teardown must be persisted exactly once")
}

func TestDisconnectTearsDownWithUserLeft(t *testing.T) {
	r, fs := newTestRelay(t)

	a := connect(t, r, "u1")
	b := connect(t, r, "u2")
	sid := pair(t, r, a, b)

	r.handleDisconnect(a)

	ev := nextEvent(t, b)
	assert.Equal(t, EventUserLeft, ev.Type, "a dropped connection reads as user_left, not session_ended")
	assert.Equal(t, sid, ev.SessionID)

	_, ok := r.SessionFor("u2")
	assert.False(t, ok)

	require.Eventually(t, func() bool {
		return fs.endedCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestDisconnectRemovesUserFromQueue(t *testing.T) {
	r, _ := newTestRelay(t)

	a := connect(t, r, "u1")
	require.Nil(t, r.JoinQueue("u1"))
	require.Equal(t, 1, r.QueueStatus().Total)

	r.handleDisconnect(a)

	assert.Equal(t, 0, r.QueueStatus().Total, "a dead connection must not linger in the queue")
}
