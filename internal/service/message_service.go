package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fisch192/beefactory/internal/domain"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 100
)

type SendMessageInput struct {
	TopicID   uuid.UUID  `json:"topic_id"`
	Body      string     `json:"body"`
	PhotoURL  string     `json:"photo_url"`
	ReplyToID *uuid.UUID `json:"reply_to_id"`
}

type MessagePage struct {
	Items      []domain.Message `json:"items"`
	NextCursor *uuid.UUID       `json:"next_cursor"`
	HasMore    bool             `json:"has_more"`
}

// SendMessage persists a message in a live, unlocked topic. The topic's
// last_message_at is a second write after the insert commits; it only orders
// topic listings, so a failure there is logged and the message still stands.
func (s *ChannelService) SendMessage(ctx context.Context, userID uuid.UUID, input SendMessageInput) (*domain.Message, error) {
	topic, err := s.GetTopic(ctx, input.TopicID)
	if err != nil {
		return nil, err
	}
	if topic.Locked {
		return nil, ErrTopicLocked
	}
	if err := s.checkRate(ctx, s.messageRepo.CountCreatedSince, userID, s.limits.Messages); err != nil {
		return nil, err
	}

	now := time.Now()
	msg := &domain.Message{
		ID:        uuid.New(),
		TopicID:   input.TopicID,
		UserID:    userID,
		Body:      input.Body,
		PhotoURL:  optional(input.PhotoURL),
		ReplyToID: input.ReplyToID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	if err := s.topicRepo.SetLastMessageAt(ctx, topic.ID, msg.CreatedAt); err != nil {
		log.Printf("WARN update last_message_at for topic %s: %v", topic.ID, err)
	}

	// Re-read za reply preview; poruka je već commitana pa je ovo best-effort
	full, err := s.messageRepo.GetByID(ctx, msg.ID)
	if err != nil || full == nil {
		return msg, nil
	}
	return full, nil
}

// GetMessages pages newest-first for cursor stability, then reverses the page
// so callers render oldest-first. The cursor identifies the next older row.
func (s *ChannelService) GetMessages(ctx context.Context, topicID uuid.UUID, cursor *uuid.UUID, limit int) (*MessagePage, error) {
	if limit <= 0 || limit > maxMessageLimit {
		limit = defaultMessageLimit
	}

	if _, err := s.GetTopic(ctx, topicID); err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListByTopic(ctx, topicID, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	var next *uuid.UUID
	if hasMore {
		// najstariji red stranice prije obrtanja
		id := messages[len(messages)-1].ID
		next = &id
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	if messages == nil {
		messages = []domain.Message{}
	}

	return &MessagePage{Items: messages, NextCursor: next, HasMore: hasMore}, nil
}

func (s *ChannelService) DeleteMessage(ctx context.Context, userID uuid.UUID, role domain.Role, messageID uuid.UUID) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.UserID != userID && !role.CanModerate() {
		return ErrNotAllowed
	}
	return s.messageRepo.SoftDelete(ctx, messageID)
}
