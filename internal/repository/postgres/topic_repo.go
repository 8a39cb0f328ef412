package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fisch192/beefactory/internal/domain"
)

type TopicRepo struct {
	pool *pgxpool.Pool
}

func NewTopicRepo(pool *pgxpool.Pool) *TopicRepo {
	return &TopicRepo{pool: pool}
}

func (r *TopicRepo) Create(ctx context.Context, t *domain.Topic) error {
	query := `
		INSERT INTO topics (id, channel_id, title, created_by, pinned, locked, last_message_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query,
		t.ID, t.ChannelID, t.Title, t.CreatedBy, t.Pinned, t.Locked, t.LastMessageAt, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (r *TopicRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	query := `
		SELECT t.id, t.channel_id, t.title, t.created_by, t.pinned, t.locked, t.last_message_at,
			t.created_at, t.updated_at,
			(SELECT COUNT(*) FROM messages m WHERE m.topic_id = t.id AND m.deleted_at IS NULL)
		FROM topics t
		WHERE t.id = $1 AND t.deleted_at IS NULL`
	var t domain.Topic
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.ChannelID, &t.Title, &t.CreatedBy, &t.Pinned, &t.Locked, &t.LastMessageAt,
		&t.CreatedAt, &t.UpdatedAt, &t.MessageCount,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &t, err
}

// ListByChannel pages through a channel's topics pinned-first, then by most
// recent activity. The sort is made total with id as the final key so keyset
// cursors can never skip or repeat a row. NULL last_message_at collates as
// the epoch on both sides of the comparison.
func (r *TopicRepo) ListByChannel(ctx context.Context, channelID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.Topic, error) {
	var query string
	var args []any

	if cursor != nil {
		// Redovi striktno nakon cursor reda u sort poretku
		query = fmt.Sprintf(`
			SELECT t.id, t.channel_id, t.title, t.created_by, t.pinned, t.locked, t.last_message_at,
				t.created_at, t.updated_at,
				(SELECT COUNT(*) FROM messages m WHERE m.topic_id = t.id AND m.deleted_at IS NULL)
			FROM topics t
			WHERE t.channel_id = $1 AND t.deleted_at IS NULL
				AND (t.pinned, COALESCE(t.last_message_at, to_timestamp(0)), t.created_at, t.id) <
					(SELECT pinned, COALESCE(last_message_at, to_timestamp(0)), created_at, id FROM topics WHERE id = $2)
			ORDER BY t.pinned DESC, t.last_message_at DESC NULLS LAST, t.created_at DESC, t.id DESC
			LIMIT %d`, limit)
		args = []any{channelID, *cursor}
	} else {
		query = fmt.Sprintf(`
			SELECT t.id, t.channel_id, t.title, t.created_by, t.pinned, t.locked, t.last_message_at,
				t.created_at, t.updated_at,
				(SELECT COUNT(*) FROM messages m WHERE m.topic_id = t.id AND m.deleted_at IS NULL)
			FROM topics t
			WHERE t.channel_id = $1 AND t.deleted_at IS NULL
			ORDER BY t.pinned DESC, t.last_message_at DESC NULLS LAST, t.created_at DESC, t.id DESC
			LIMIT %d`, limit)
		args = []any{channelID}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []domain.Topic
	for rows.Next() {
		var t domain.Topic
		if err := rows.Scan(&t.ID, &t.ChannelID, &t.Title, &t.CreatedBy, &t.Pinned, &t.Locked,
			&t.LastMessageAt, &t.CreatedAt, &t.UpdatedAt, &t.MessageCount); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

func (r *TopicRepo) SetLastMessageAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE topics SET last_message_at = $1, updated_at = $1 WHERE id = $2`, at, id)
	return err
}

func (r *TopicRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE topics SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`, time.Now(), id)
	return err
}

func (r *TopicRepo) CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM topics WHERE created_by = $1 AND created_at >= $2 AND deleted_at IS NULL`
	var n int
	err := r.pool.QueryRow(ctx, query, userID, since).Scan(&n)
	return n, err
}
