package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fisch192/beefactory/internal/domain"
)

// All reads filter out soft-deleted rows and return (nil, nil) when nothing
// matches. List calls take an optional cursor (the id of the last row of the
// previous page) and return up to limit rows strictly after it in sort order.

type ChannelRepository interface {
	Create(ctx context.Context, ch *domain.Channel) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Channel, error)
	List(ctx context.Context) ([]domain.Channel, error)
	MaxPosition(ctx context.Context) (int, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}

type TopicRepository interface {
	Create(ctx context.Context, t *domain.Topic) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error)
	ListByChannel(ctx context.Context, channelID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.Topic, error)
	SetLastMessageAt(ctx context.Context, id uuid.UUID, at time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	// ListByTopic returns messages newest-first.
	ListByTopic(ctx context.Context, topicID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.Message, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}
