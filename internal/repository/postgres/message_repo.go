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

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, topic_id, user_id, body, photo_url, reply_to_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.TopicID, msg.UserID, msg.Body, msg.PhotoURL, msg.ReplyToID, msg.CreatedAt, msg.UpdatedAt,
	)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	// Reply preview preko LEFT JOIN-a; reply_to_id je weak referenca
	query := `
		SELECT m.id, m.topic_id, m.user_id, m.body, m.photo_url, m.reply_to_id, m.created_at, m.updated_at,
			p.id, p.user_id, p.body
		FROM messages m
		LEFT JOIN messages p ON p.id = m.reply_to_id
		WHERE m.id = $1 AND m.deleted_at IS NULL`
	var msg domain.Message
	var refID, refUserID *uuid.UUID
	var refBody *string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.TopicID, &msg.UserID, &msg.Body, &msg.PhotoURL, &msg.ReplyToID,
		&msg.CreatedAt, &msg.UpdatedAt, &refID, &refUserID, &refBody,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if refID != nil {
		msg.ReplyTo = &domain.MessageRef{ID: *refID, UserID: *refUserID, Body: *refBody}
	}
	return &msg, nil
}

// ListByTopic returns non-deleted messages newest-first. The cursor subquery
// reads the boundary row without a deleted_at filter, so a page boundary that
// gets soft-deleted mid-scroll still anchors the next page.
func (r *MessageRepo) ListByTopic(ctx context.Context, topicID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.Message, error) {
	var query string
	var args []any

	if cursor != nil {
		query = fmt.Sprintf(`
			SELECT m.id, m.topic_id, m.user_id, m.body, m.photo_url, m.reply_to_id, m.created_at, m.updated_at,
				p.id, p.user_id, p.body
			FROM messages m
			LEFT JOIN messages p ON p.id = m.reply_to_id
			WHERE m.topic_id = $1 AND m.deleted_at IS NULL
				AND (m.created_at, m.id) < (SELECT created_at, id FROM messages WHERE id = $2)
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT %d`, limit)
		args = []any{topicID, *cursor}
	} else {
		query = fmt.Sprintf(`
			SELECT m.id, m.topic_id, m.user_id, m.body, m.photo_url, m.reply_to_id, m.created_at, m.updated_at,
				p.id, p.user_id, p.body
			FROM messages m
			LEFT JOIN messages p ON p.id = m.reply_to_id
			WHERE m.topic_id = $1 AND m.deleted_at IS NULL
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT %d`, limit)
		args = []any{topicID}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var refID, refUserID *uuid.UUID
		var refBody *string
		if err := rows.Scan(
			&msg.ID, &msg.TopicID, &msg.UserID, &msg.Body, &msg.PhotoURL, &msg.ReplyToID,
			&msg.CreatedAt, &msg.UpdatedAt, &refID, &refUserID, &refBody,
		); err != nil {
			return nil, err
		}
		if refID != nil {
			msg.ReplyTo = &domain.MessageRef{ID: *refID, UserID: *refUserID, Body: *refBody}
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *MessageRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE messages SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`, time.Now(), id)
	return err
}

func (r *MessageRepo) CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM messages WHERE user_id = $1 AND created_at >= $2 AND deleted_at IS NULL`
	var n int
	err := r.pool.QueryRow(ctx, query, userID, since).Scan(&n)
	return n, err
}
