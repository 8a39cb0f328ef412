// Package memory holds in-memory implementations of the repository
// interfaces with the same sort, cursor, and soft-delete semantics as the
// postgres package. The service and transport tests run against it.
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fisch192/beefactory/internal/domain"
)

type Store struct {
	mu       sync.Mutex
	channels map[uuid.UUID]*domain.Channel
	topics   map[uuid.UUID]*domain.Topic
	messages map[uuid.UUID]*domain.Message
}

// New returns the three repositories backed by one shared store.
func New() (*ChannelRepo, *TopicRepo, *MessageRepo) {
	s := &Store{
		channels: make(map[uuid.UUID]*domain.Channel),
		topics:   make(map[uuid.UUID]*domain.Topic),
		messages: make(map[uuid.UUID]*domain.Message),
	}
	return &ChannelRepo{s: s}, &TopicRepo{s: s}, &MessageRepo{s: s}
}

// ---------------------------------------------------------------------------
// Channels
// ---------------------------------------------------------------------------

type ChannelRepo struct {
	s *Store

	CreateErr error // injected failure for tests
}

func (r *ChannelRepo) Create(_ context.Context, ch *domain.Channel) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *ch
	r.s.channels[ch.ID] = &cp
	return nil
}

func (r *ChannelRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Channel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ch, ok := r.s.channels[id]
	if !ok || ch.DeletedAt != nil {
		return nil, nil
	}
	cp := *ch
	cp.TopicCount = r.s.liveTopicCount(id)
	return &cp, nil
}

func (r *ChannelRepo) List(_ context.Context) ([]domain.Channel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var channels []domain.Channel
	for _, ch := range r.s.channels {
		if ch.DeletedAt != nil {
			continue
		}
		cp := *ch
		cp.TopicCount = r.s.liveTopicCount(ch.ID)
		channels = append(channels, cp)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].Position < channels[j].Position })
	return channels, nil
}

func (r *ChannelRepo) MaxPosition(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	max := 0
	for _, ch := range r.s.channels {
		// soft-deleted rows count too, positions are never reused
		if ch.Position > max {
			max = ch.Position
		}
	}
	return max, nil
}

func (r *ChannelRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if ch, ok := r.s.channels[id]; ok && ch.DeletedAt == nil {
		now := time.Now()
		ch.DeletedAt = &now
	}
	return nil
}

func (r *ChannelRepo) CountCreatedSince(_ context.Context, userID uuid.UUID, since time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, ch := range r.s.channels {
		if ch.CreatedBy == userID && ch.DeletedAt == nil && !ch.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Topics
// ---------------------------------------------------------------------------

type TopicRepo struct {
	s *Store

	SetLastMessageAtErr error // injected failure for tests
}

func (r *TopicRepo) Create(_ context.Context, t *domain.Topic) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *t
	r.s.topics[t.ID] = &cp
	return nil
}

func (r *TopicRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Topic, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.topics[id]
	if !ok || t.DeletedAt != nil {
		return nil, nil
	}
	cp := *t
	cp.MessageCount = r.s.liveMessageCount(id)
	return &cp, nil
}

func (r *TopicRepo) ListByChannel(_ context.Context, channelID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.Topic, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// Cursor red se cita i ako je soft-deleted, isto kao SQL subquery
	var after *domain.Topic
	if cursor != nil {
		after = r.s.topics[*cursor]
	}

	var topics []domain.Topic
	for _, t := range r.s.topics {
		if t.ChannelID != channelID || t.DeletedAt != nil {
			continue
		}
		if after != nil && !topicBefore(after, t) {
			continue
		}
		cp := *t
		cp.MessageCount = r.s.liveMessageCount(t.ID)
		topics = append(topics, cp)
	}
	sort.Slice(topics, func(i, j int) bool { return topicBefore(&topics[i], &topics[j]) })
	if len(topics) > limit {
		topics = topics[:limit]
	}
	return topics, nil
}

func (r *TopicRepo) SetLastMessageAt(_ context.Context, id uuid.UUID, at time.Time) error {
	if r.SetLastMessageAtErr != nil {
		return r.SetLastMessageAtErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.topics[id]; ok {
		t.LastMessageAt = &at
		t.UpdatedAt = at
	}
	return nil
}

func (r *TopicRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.topics[id]; ok && t.DeletedAt == nil {
		now := time.Now()
		t.DeletedAt = &now
	}
	return nil
}

func (r *TopicRepo) CountCreatedSince(_ context.Context, userID uuid.UUID, since time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, t := range r.s.topics {
		if t.CreatedBy == userID && t.DeletedAt == nil && !t.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// topicBefore is the topic sort order: pinned first, then most recent
// activity, then newest created, then id descending as the tiebreaker.
func topicBefore(a, b *domain.Topic) bool {
	if a.Pinned != b.Pinned {
		return a.Pinned
	}
	al, bl := lastMessageOrEpoch(a), lastMessageOrEpoch(b)
	if !al.Equal(bl) {
		return al.After(bl)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) > 0
}

func lastMessageOrEpoch(t *domain.Topic) time.Time {
	if t.LastMessageAt == nil {
		return time.Unix(0, 0)
	}
	return *t.LastMessageAt
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

type MessageRepo struct {
	s *Store

	CreateErr error // injected failure for tests
}

func (r *MessageRepo) Create(_ context.Context, msg *domain.Message) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *msg
	r.s.messages[msg.ID] = &cp
	return nil
}

func (r *MessageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	msg, ok := r.s.messages[id]
	if !ok || msg.DeletedAt != nil {
		return nil, nil
	}
	cp := *msg
	r.s.attachReplyPreview(&cp)
	return &cp, nil
}

func (r *MessageRepo) ListByTopic(_ context.Context, topicID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var after *domain.Message
	if cursor != nil {
		after = r.s.messages[*cursor]
	}

	var messages []domain.Message
	for _, msg := range r.s.messages {
		if msg.TopicID != topicID || msg.DeletedAt != nil {
			continue
		}
		if after != nil && !messageBefore(after, msg) {
			continue
		}
		cp := *msg
		r.s.attachReplyPreview(&cp)
		messages = append(messages, cp)
	}
	sort.Slice(messages, func(i, j int) bool { return messageBefore(&messages[i], &messages[j]) })
	if len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func (r *MessageRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if msg, ok := r.s.messages[id]; ok && msg.DeletedAt == nil {
		now := time.Now()
		msg.DeletedAt = &now
	}
	return nil
}

func (r *MessageRepo) CountCreatedSince(_ context.Context, userID uuid.UUID, since time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, msg := range r.s.messages {
		if msg.UserID == userID && msg.DeletedAt == nil && !msg.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// messageBefore is the newest-first fetch order: created_at descending, id
// descending as the tiebreaker.
func messageBefore(a, b *domain.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) > 0
}

// ---------------------------------------------------------------------------
// Shared helpers (store lock held by caller)
// ---------------------------------------------------------------------------

func (s *Store) liveTopicCount(channelID uuid.UUID) int {
	n := 0
	for _, t := range s.topics {
		if t.ChannelID == channelID && t.DeletedAt == nil {
			n++
		}
	}
	return n
}

func (s *Store) liveMessageCount(topicID uuid.UUID) int {
	n := 0
	for _, m := range s.messages {
		if m.TopicID == topicID && m.DeletedAt == nil {
			n++
		}
	}
	return n
}

func (s *Store) attachReplyPreview(msg *domain.Message) {
	if msg.ReplyToID == nil {
		return
	}
	// weak referenca, preview i za soft-deleted target
	if ref, ok := s.messages[*msg.ReplyToID]; ok {
		msg.ReplyTo = &domain.MessageRef{ID: ref.ID, UserID: ref.UserID, Body: ref.Body}
	}
}
