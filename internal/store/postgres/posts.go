package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"postplane/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CreatePost inserts a new post. Media asset handles are stored as a
// text array so their upload order survives the round trip.
func (s *Store) CreatePost(ctx context.Context, tx store.DBTransaction, post *store.Post) error {
	executor := s.getExecutor(tx)

	query := `
		INSERT INTO posts (id, user_id, platform, content, media_assets, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := executor.ExecContext(ctx, query,
		post.ID,
		post.UserID,
		post.Platform,
		post.Content,
		pq.Array(post.MediaAssets),
		post.Status,
		post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create post %s: %w", post.ID, err)
	}
	return nil
}

func (s *Store) GetPostByID(ctx context.Context, id uuid.UUID) (*store.Post, error) {
	query := `
		SELECT id, user_id, platform, content, media_assets, status, platform_post_id, posted_at, created_at
		FROM posts
		WHERE id = $1
	`

	var p store.Post
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.UserID,
		&p.Platform,
		&p.Content,
		pq.Array(&p.MediaAssets),
		&p.Status,
		&p.PlatformPostID,
		&p.PostedAt,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}
