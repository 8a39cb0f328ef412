package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fisch192/beefactory/internal/domain"
	"github.com/fisch192/beefactory/internal/service"
)

// stubSender stands in for ChannelService so the persist-before-broadcast
// contract can be tested without a store.
type stubSender struct {
	msg   *domain.Message
	err   error
	calls []service.SendMessageInput
}

func (s *stubSender) SendMessage(_ context.Context, userID uuid.UUID, input service.SendMessageInput) (*domain.Message, error) {
	s.calls = append(s.calls, input)
	if s.err != nil {
		return nil, s.err
	}
	msg := *s.msg
	msg.UserID = userID
	msg.TopicID = input.TopicID
	return &msg, nil
}

func newTestClient(hub *Hub, name string, sender MessageSender) *Client {
	principal := domain.Principal{ID: uuid.New(), Role: domain.RoleUser, DisplayName: name}
	return NewClient(hub, nil, principal, sender)
}

func readEvent(t *testing.T, c *Client) *Event {
	t.Helper()
	select {
	case data := <-c.send:
		var evt Event
		require.NoError(t, json.Unmarshal(data, &evt))
		return &evt
	default:
		t.Fatal("expected a queued event, got none")
		return nil
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("expected no event, got %s", data)
	default:
	}
}

func decodePayload[T any](t *testing.T, evt *Event) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(evt.Payload, &v))
	return v
}

func mustRaw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestJoinTopic_AckAndPresence(t *testing.T) {
	hub := NewHub()
	topicID := uuid.New()
	a := newTestClient(hub, "Ana", nil)
	b := newTestClient(hub, "Bero", nil)

	a.handleEvent(&Event{Event: EventJoinTopic, TopicID: &topicID})
	ack := readEvent(t, a)
	assert.Equal(t, EventJoined, ack.Event)
	require.NotNil(t, ack.TopicID)
	assert.Equal(t, topicID, *ack.TopicID)
	assertNoEvent(t, a)

	b.handleEvent(&Event{Event: EventJoinTopic, TopicID: &topicID})

	// A je obaviješten o B-u; B dobiva samo svoj ack
	presence := readEvent(t, a)
	assert.Equal(t, EventUserJoined, presence.Event)
	p := decodePayload[PresencePayload](t, presence)
	assert.Equal(t, b.principal.ID, p.UserID)
	assert.Equal(t, "Bero", p.DisplayName)

	ack = readEvent(t, b)
	assert.Equal(t, EventJoined, ack.Event)
	assertNoEvent(t, b)
}

func TestJoinTopic_MissingTopicID(t *testing.T) {
	hub := NewHub()
	a := newTestClient(hub, "Ana", nil)

	a.handleEvent(&Event{Event: EventJoinTopic})
	evt := readEvent(t, a)
	assert.Equal(t, EventError, evt.Event)
	assert.Empty(t, hub.rooms)
}

func TestLeaveTopic_NotifiesRemaining(t *testing.T) {
	hub := NewHub()
	topicID := uuid.New()
	a := newTestClient(hub, "Ana", nil)
	b := newTestClient(hub, "Bero", nil)
	hub.Join(a, topicID)
	hub.Join(b, topicID)
	drain(a)
	drain(b)

	b.handleEvent(&Event{Event: EventLeaveTopic, TopicID: &topicID})

	left := readEvent(t, a)
	assert.Equal(t, EventUserLeft, left.Event)
	p := decodePayload[PresencePayload](t, left)
	assert.Equal(t, b.principal.ID, p.UserID)

	ack := readEvent(t, b)
	assert.Equal(t, EventLeft, ack.Event)
	assertNoEvent(t, b)

	assert.Len(t, hub.rooms[topicID], 1)
}

func TestDisconnect_RemovesFromEveryRoom(t *testing.T) {
	hub := NewHub()
	room1 := uuid.New()
	room2 := uuid.New()
	a := newTestClient(hub, "Ana", nil)
	b := newTestClient(hub, "Bero", nil)
	c := newTestClient(hub, "Cvita", nil)
	hub.Join(a, room1)
	hub.Join(b, room1)
	hub.Join(a, room2)
	hub.Join(c, room2)
	drain(a)
	drain(b)
	drain(c)

	hub.Disconnect(a)

	left := readEvent(t, b)
	assert.Equal(t, EventUserLeft, left.Event)
	assert.Equal(t, a.principal.ID, decodePayload[PresencePayload](t, left).UserID)

	left = readEvent(t, c)
	assert.Equal(t, EventUserLeft, left.Event)
	assert.Equal(t, a.principal.ID, decodePayload[PresencePayload](t, left).UserID)

	_, tracked := hub.joined[a]
	assert.False(t, tracked)
	for topicID, members := range hub.rooms {
		_, member := members[a]
		assert.False(t, member, "still member of %s", topicID)
	}

	// Ponovljeni disconnect ne emitira ništa
	hub.Disconnect(a)
	assertNoEvent(t, b)
	assertNoEvent(t, c)
}

func TestSendMessage_BroadcastOnlyAfterPersist(t *testing.T) {
	hub := NewHub()
	topicID := uuid.New()
	sender := &stubSender{msg: &domain.Message{ID: uuid.New(), Body: "What temperature is safe?"}}
	a := newTestClient(hub, "Ana", sender)
	b := newTestClient(hub, "Bero", sender)
	hub.Join(a, topicID)
	hub.Join(b, topicID)
	drain(a)
	drain(b)

	a.handleEvent(&Event{
		Event:   EventSendMessage,
		TopicID: &topicID,
		Payload: mustRaw(t, SendMessagePayload{Body: "What temperature is safe?"}),
	})

	require.Len(t, sender.calls, 1)
	assert.Equal(t, topicID, sender.calls[0].TopicID)
	assert.Equal(t, "What temperature is safe?", sender.calls[0].Body)

	// Obje konekcije, pošiljatelj uključen, dobivaju istu poruku
	got := readEvent(t, a)
	assert.Equal(t, EventNewMessage, got.Event)
	sentToA := decodePayload[MessagePayload](t, got)

	got = readEvent(t, b)
	assert.Equal(t, EventNewMessage, got.Event)
	sentToB := decodePayload[MessagePayload](t, got)
	assert.Equal(t, sentToA.ID, sentToB.ID)
	assert.Equal(t, sentToA.Body, sentToB.Body)

	// Ack stiže pošiljatelju nakon broadcasta
	ack := readEvent(t, a)
	assert.Equal(t, EventMessageSent, ack.Event)
	assert.Equal(t, sentToA.ID, decodePayload[MessageSentPayload](t, ack).MessageID)
	assertNoEvent(t, b)
}

func TestSendMessage_FailureReachesOnlySender(t *testing.T) {
	hub := NewHub()
	topicID := uuid.New()
	sender := &stubSender{err: service.ErrTopicLocked}
	a := newTestClient(hub, "Ana", sender)
	b := newTestClient(hub, "Bero", sender)
	hub.Join(a, topicID)
	hub.Join(b, topicID)
	drain(a)
	drain(b)

	a.handleEvent(&Event{
		Event:   EventSendMessage,
		TopicID: &topicID,
		Payload: mustRaw(t, SendMessagePayload{Body: "locked out"}),
	})

	evt := readEvent(t, a)
	assert.Equal(t, EventError, evt.Event)
	assert.Equal(t, "FORBIDDEN", decodePayload[ErrorPayload](t, evt).Code)
	assertNoEvent(t, a)
	assertNoEvent(t, b)
}

func TestSendMessage_ValidationRejectedBeforeService(t *testing.T) {
	hub := NewHub()
	topicID := uuid.New()
	sender := &stubSender{msg: &domain.Message{ID: uuid.New()}}
	a := newTestClient(hub, "Ana", sender)
	hub.Join(a, topicID)
	drain(a)

	a.handleEvent(&Event{
		Event:   EventSendMessage,
		TopicID: &topicID,
		Payload: mustRaw(t, SendMessagePayload{Body: ""}),
	})

	evt := readEvent(t, a)
	assert.Equal(t, EventError, evt.Event)
	assert.Equal(t, "VALIDATION", decodePayload[ErrorPayload](t, evt).Code)
	assert.Empty(t, sender.calls)
}

func TestTyping_RelayedToOthersOnly(t *testing.T) {
	hub := NewHub()
	topicID := uuid.New()
	otherRoom := uuid.New()
	a := newTestClient(hub, "Ana", nil)
	b := newTestClient(hub, "Bero", nil)
	c := newTestClient(hub, "Cvita", nil)
	hub.Join(a, topicID)
	hub.Join(b, topicID)
	hub.Join(c, otherRoom)
	drain(a)
	drain(b)
	drain(c)

	a.handleEvent(&Event{Event: EventTyping, TopicID: &topicID})

	evt := readEvent(t, b)
	assert.Equal(t, EventUserTyping, evt.Event)
	p := decodePayload[PresencePayload](t, evt)
	assert.Equal(t, a.principal.ID, p.UserID)
	assert.Equal(t, "Ana", p.DisplayName)

	assertNoEvent(t, a)
	assertNoEvent(t, c)

	a.handleEvent(&Event{Event: EventStopTyping, TopicID: &topicID})
	evt = readEvent(t, b)
	assert.Equal(t, EventUserStopTyping, evt.Event)
}

func TestUnknownEvent(t *testing.T) {
	hub := NewHub()
	a := newTestClient(hub, "Ana", nil)

	a.handleEvent(&Event{Event: "shout"})
	evt := readEvent(t, a)
	assert.Equal(t, EventError, evt.Event)
	assert.Equal(t, "UNKNOWN_EVENT", decodePayload[ErrorPayload](t, evt).Code)
}

func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}
