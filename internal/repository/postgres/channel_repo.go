package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fisch192/beefactory/internal/domain"
)

type ChannelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepo(pool *pgxpool.Pool) *ChannelRepo {
	return &ChannelRepo{pool: pool}
}

func (r *ChannelRepo) Create(ctx context.Context, ch *domain.Channel) error {
	query := `
		INSERT INTO channels (id, name, description, icon, position, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query,
		ch.ID, ch.Name, ch.Description, ch.Icon, ch.Position, ch.CreatedBy, ch.CreatedAt, ch.UpdatedAt,
	)
	return err
}

func (r *ChannelRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Channel, error) {
	query := `
		SELECT c.id, c.name, c.description, c.icon, c.position, c.created_by, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM topics t WHERE t.channel_id = c.id AND t.deleted_at IS NULL)
		FROM channels c
		WHERE c.id = $1 AND c.deleted_at IS NULL`
	var ch domain.Channel
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&ch.ID, &ch.Name, &ch.Description, &ch.Icon, &ch.Position,
		&ch.CreatedBy, &ch.CreatedAt, &ch.UpdatedAt, &ch.TopicCount,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &ch, err
}

func (r *ChannelRepo) List(ctx context.Context) ([]domain.Channel, error) {
	query := `
		SELECT c.id, c.name, c.description, c.icon, c.position, c.created_by, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM topics t WHERE t.channel_id = c.id AND t.deleted_at IS NULL)
		FROM channels c
		WHERE c.deleted_at IS NULL
		ORDER BY c.position`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []domain.Channel
	for rows.Next() {
		var ch domain.Channel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.Description, &ch.Icon, &ch.Position,
			&ch.CreatedBy, &ch.CreatedAt, &ch.UpdatedAt, &ch.TopicCount); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// MaxPosition scans all rows, soft-deleted included, so positions are never
// reused after a delete.
func (r *ChannelRepo) MaxPosition(ctx context.Context) (int, error) {
	var max int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(position), 0) FROM channels`).Scan(&max)
	return max, err
}

func (r *ChannelRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE channels SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`, time.Now(), id)
	return err
}

func (r *ChannelRepo) CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM channels WHERE created_by = $1 AND created_at >= $2 AND deleted_at IS NULL`
	var n int
	err := r.pool.QueryRow(ctx, query, userID, since).Scan(&n)
	return n, err
}
