package domain

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID        uuid.UUID  `json:"id"`
	TopicID   uuid.UUID  `json:"topic_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Body      string     `json:"body"`
	PhotoURL  *string    `json:"photo_url,omitempty"`
	ReplyToID *uuid.UUID `json:"reply_to_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
	// Joined fields
	ReplyTo *MessageRef `json:"reply_to,omitempty"`
}

// MessageRef is the preview of a replied-to message. The reference is weak:
// it can point at a message that has since been soft-deleted.
type MessageRef struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Body   string    `json:"body"`
}
