package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fisch192/beefactory/internal/domain"
)

const (
	defaultTopicLimit = 30
	maxTopicLimit     = 100
)

type TopicPage struct {
	Items      []domain.Topic `json:"items"`
	NextCursor *uuid.UUID     `json:"next_cursor"`
	HasMore    bool           `json:"has_more"`
}

func (s *ChannelService) CreateTopic(ctx context.Context, userID, channelID uuid.UUID, title string) (*domain.Topic, error) {
	// Kanal mora biti živ u trenutku kreiranja
	if _, err := s.GetChannel(ctx, channelID); err != nil {
		return nil, err
	}
	if err := s.checkRate(ctx, s.topicRepo.CountCreatedSince, userID, s.limits.Topics); err != nil {
		return nil, err
	}

	now := time.Now()
	t := &domain.Topic{
		ID:        uuid.New(),
		ChannelID: channelID,
		Title:     title,
		CreatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.topicRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("creating topic: %w", err)
	}
	return t, nil
}

func (s *ChannelService) ListTopics(ctx context.Context, channelID uuid.UUID, cursor *uuid.UUID, limit int) (*TopicPage, error) {
	if limit <= 0 || limit > maxTopicLimit {
		limit = defaultTopicLimit
	}

	if _, err := s.GetChannel(ctx, channelID); err != nil {
		return nil, err
	}

	// limit+1 da znamo ima li još
	topics, err := s.topicRepo.ListByChannel(ctx, channelID, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(topics) > limit
	if hasMore {
		topics = topics[:limit]
	}

	var next *uuid.UUID
	if hasMore {
		id := topics[len(topics)-1].ID
		next = &id
	}

	if topics == nil {
		topics = []domain.Topic{}
	}

	return &TopicPage{Items: topics, NextCursor: next, HasMore: hasMore}, nil
}

func (s *ChannelService) GetTopic(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	t, err := s.topicRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTopicNotFound
	}
	return t, nil
}
