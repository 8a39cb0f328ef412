package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/fisch192/beefactory/internal/domain"
)

// Event types - Client → Server
const (
	EventJoinTopic   = "join_topic"
	EventLeaveTopic  = "leave_topic"
	EventSendMessage = "send_message"
	EventTyping      = "typing"
	EventStopTyping  = "stop_typing"
)

// Event types - Server → Client
const (
	EventNewMessage     = "new_message"
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
	EventUserTyping     = "user_typing"
	EventUserStopTyping = "user_stop_typing"
)

// Acknowledgments, delivered only to the originating connection
const (
	EventJoined      = "joined"
	EventLeft        = "left"
	EventMessageSent = "message_sent"
	EventError       = "error"
)

// Event is the envelope for all WebSocket traffic in both directions.
type Event struct {
	Event     string          `json:"event"`
	TopicID   *uuid.UUID      `json:"topic_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type SendMessagePayload struct {
	Body      string     `json:"body"`
	PhotoURL  string     `json:"photo_url,omitempty"`
	ReplyToID *uuid.UUID `json:"reply_to_id,omitempty"`
}

// --- Server → Client payloads ---

type MessagePayload struct {
	domain.Message
}

type PresencePayload struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
}

type MessageSentPayload struct {
	MessageID uuid.UUID `json:"message_id"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, topicID *uuid.UUID, payload any) (*Event, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return &Event{
		Event:     eventType,
		TopicID:   topicID,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
