package domain

import (
	"time"

	"github.com/google/uuid"
)

type Topic struct {
	ID            uuid.UUID  `json:"id"`
	ChannelID     uuid.UUID  `json:"channel_id"`
	Title         string     `json:"title"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	Pinned        bool       `json:"pinned"`
	Locked        bool       `json:"locked"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"-"`
	// Joined fields
	MessageCount int `json:"message_count"`
}
