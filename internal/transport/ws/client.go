package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/fisch192/beefactory/internal/domain"
	"github.com/fisch192/beefactory/internal/service"
	"github.com/fisch192/beefactory/pkg/validator"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 8192
	sendBufSize    = 256
)

// MessageSender is the slice of ChannelService the gateway needs. Broadcast
// happens here, after SendMessage returns, never inside the service.
type MessageSender interface {
	SendMessage(ctx context.Context, userID uuid.UUID, input service.SendMessageInput) (*domain.Message, error)
}

// Client represents one authenticated WebSocket connection.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	principal domain.Principal
	sender    MessageSender

	send chan []byte
	done chan struct{}
	once sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, principal domain.Principal, sender MessageSender) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		principal: principal,
		sender:    sender,
		send:      make(chan []byte, sendBufSize),
		done:      make(chan struct{}),
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

// ReadPump reads events from the WebSocket and dispatches them.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.close()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		var event Event
		err := wsjson.Read(context.Background(), c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Printf("ws: user %s disconnected", c.principal.ID)
			} else {
				log.Printf("ws: read error from %s: %v", c.principal.ID, err)
			}
			return
		}

		c.handleEvent(&event)
	}
}

// WritePump writes queued events to the WebSocket until the connection dies.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				log.Printf("ws: write error to %s: %v", c.principal.ID, err)
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// handleEvent routes one incoming client event.
func (c *Client) handleEvent(event *Event) {
	switch event.Event {
	case EventJoinTopic:
		topicID, ok := c.requireTopic(event)
		if !ok {
			return
		}
		c.hub.Join(c, topicID)
		c.sendAck(EventJoined, &topicID, nil)

	case EventLeaveTopic:
		topicID, ok := c.requireTopic(event)
		if !ok {
			return
		}
		c.hub.Leave(c, topicID)
		c.sendAck(EventLeft, &topicID, nil)

	case EventSendMessage:
		c.handleSendMessage(event)

	case EventTyping, EventStopTyping:
		topicID, ok := c.requireTopic(event)
		if !ok {
			return
		}
		c.relayTyping(event.Event, topicID)

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Event)
	}
}

// handleSendMessage persists through the service and broadcasts only after
// the service call succeeds. On failure nothing reaches the room; only this
// connection gets an error ack.
func (c *Client) handleSendMessage(event *Event) {
	topicID, ok := c.requireTopic(event)
	if !ok {
		return
	}

	var p SendMessagePayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		c.sendError("INVALID_PAYLOAD", "invalid send_message payload")
		return
	}

	if errs := validator.ValidateMessage(p.Body, p.PhotoURL); errs.HasErrors() {
		c.sendError("VALIDATION", "invalid message: "+firstError(errs))
		return
	}

	// Background context: prekid konekcije ne smije otkazati upis
	msg, err := c.sender.SendMessage(context.Background(), c.principal.ID, service.SendMessageInput{
		TopicID:   topicID,
		Body:      p.Body,
		PhotoURL:  p.PhotoURL,
		ReplyToID: p.ReplyToID,
	})
	if err != nil {
		code, message := mapServiceError(err)
		c.sendError(code, message)
		return
	}

	evt, err := NewEvent(EventNewMessage, &topicID, MessagePayload{Message: *msg})
	if err != nil {
		log.Printf("ws: marshal new_message: %v", err)
		return
	}
	c.hub.BroadcastToRoom(topicID, evt, nil)
	c.sendAck(EventMessageSent, &topicID, MessageSentPayload{MessageID: msg.ID})
}

// relayTyping is best-effort: not persisted, no delivery guarantee.
func (c *Client) relayTyping(eventType string, topicID uuid.UUID) {
	out := EventUserTyping
	if eventType == EventStopTyping {
		out = EventUserStopTyping
	}
	evt, err := NewEvent(out, &topicID, PresencePayload{
		UserID:      c.principal.ID,
		DisplayName: c.principal.DisplayName,
	})
	if err != nil {
		return
	}
	c.hub.BroadcastToRoom(topicID, evt, c)
}

func (c *Client) requireTopic(event *Event) (uuid.UUID, bool) {
	if event.TopicID == nil {
		c.sendError("INVALID_PAYLOAD", "topic_id required for "+event.Event)
		return uuid.Nil, false
	}
	return *event.TopicID, true
}

func (c *Client) sendAck(eventType string, topicID *uuid.UUID, payload any) {
	evt, err := NewEvent(eventType, topicID, payload)
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(code, message string) {
	c.sendAck(EventError, nil, ErrorPayload{Code: code, Message: message})
}

func mapServiceError(err error) (code, message string) {
	switch {
	case errors.Is(err, service.ErrTopicNotFound):
		return "NOT_FOUND", "Topic not found"
	case errors.Is(err, service.ErrTopicLocked):
		return "FORBIDDEN", "Topic is locked"
	case errors.Is(err, service.ErrRateLimited):
		return "RATE_LIMITED", "Too many messages sent, try again later"
	default:
		log.Printf("ERROR ws send message: %v", err)
		return "INTERNAL", "Failed to send message"
	}
}

func firstError(errs validator.ValidationErrors) string {
	for _, msg := range errs {
		return msg
	}
	return ""
}
