package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fisch192/beefactory/internal/domain"
	"github.com/fisch192/beefactory/internal/repository"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrTopicNotFound   = errors.New("topic not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrTopicLocked     = errors.New("topic is locked")
	ErrNotAllowed      = errors.New("caller is not allowed to perform this action")
	ErrRateLimited     = errors.New("rate limit exceeded")
)

// RateLimits caps how many rows one caller may create inside a trailing
// window. A zero ceiling (or zero window) disables the check for that entity.
type RateLimits struct {
	Window   time.Duration
	Channels int
	Topics   int
	Messages int
}

// ChannelService owns every read and write of the channel/topic/message
// domain. Both the REST handlers and the WebSocket gateway are thin adapters
// over it; neither touches the repositories directly.
type ChannelService struct {
	channelRepo repository.ChannelRepository
	topicRepo   repository.TopicRepository
	messageRepo repository.MessageRepository
	limits      RateLimits
}

func NewChannelService(
	channelRepo repository.ChannelRepository,
	topicRepo repository.TopicRepository,
	messageRepo repository.MessageRepository,
	limits RateLimits,
) *ChannelService {
	return &ChannelService{
		channelRepo: channelRepo,
		topicRepo:   topicRepo,
		messageRepo: messageRepo,
		limits:      limits,
	}
}

type CreateChannelInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func (s *ChannelService) CreateChannel(ctx context.Context, userID uuid.UUID, input CreateChannelInput) (*domain.Channel, error) {
	if err := s.checkRate(ctx, s.channelRepo.CountCreatedSince, userID, s.limits.Channels); err != nil {
		return nil, err
	}

	// Pozicije su monotone: max preko svih redova (i obrisanih) + 1
	maxPos, err := s.channelRepo.MaxPosition(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading max position: %w", err)
	}

	now := time.Now()
	ch := &domain.Channel{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: optional(input.Description),
		Icon:        optional(input.Icon),
		Position:    maxPos + 1,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.channelRepo.Create(ctx, ch); err != nil {
		return nil, fmt.Errorf("creating channel: %w", err)
	}
	return ch, nil
}

func (s *ChannelService) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	channels, err := s.channelRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if channels == nil {
		channels = []domain.Channel{}
	}
	return channels, nil
}

func (s *ChannelService) GetChannel(ctx context.Context, id uuid.UUID) (*domain.Channel, error) {
	ch, err := s.channelRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrChannelNotFound
	}
	return ch, nil
}

func (s *ChannelService) DeleteChannel(ctx context.Context, userID uuid.UUID, role domain.Role, id uuid.UUID) error {
	ch, err := s.GetChannel(ctx, id)
	if err != nil {
		return err
	}
	if ch.CreatedBy != userID && !role.CanModerate() {
		return ErrNotAllowed
	}
	return s.channelRepo.SoftDelete(ctx, id)
}

// checkRate counts the caller's recent rows via the given repo counter and
// fails closed before any write happens.
func (s *ChannelService) checkRate(
	ctx context.Context,
	count func(context.Context, uuid.UUID, time.Time) (int, error),
	userID uuid.UUID,
	ceiling int,
) error {
	if ceiling <= 0 || s.limits.Window <= 0 {
		return nil
	}
	n, err := count(ctx, userID, time.Now().Add(-s.limits.Window))
	if err != nil {
		return fmt.Errorf("counting recent rows: %w", err)
	}
	if n >= ceiling {
		return ErrRateLimited
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
