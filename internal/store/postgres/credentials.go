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

func (s *Store) UpsertCredential(ctx context.Context, cred *store.Credential) error {
	query := `
		INSERT INTO credentials (user_id, platform, access_token, refresh_token, account_id, scopes, connected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, platform) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    account_id = EXCLUDED.account_id,
		    scopes = EXCLUDED.scopes,
		    connected_at = EXCLUDED.connected_at
	`

	_, err := s.db.ExecContext(ctx, query,
		cred.UserID,
		cred.Platform,
		cred.AccessToken,
		cred.RefreshToken,
		cred.AccountID,
		pq.Array(cred.Scopes),
		cred.ConnectedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}
	return nil
}

func (s *Store) GetCredential(ctx context.Context, userID uuid.UUID, platform store.Platform) (*store.Credential, error) {
	query := `
		SELECT user_id, platform, access_token, refresh_token, account_id, scopes, connected_at
		FROM credentials
		WHERE user_id = $1 AND platform = $2
	`

	var c store.Credential
	err := s.db.QueryRowContext(ctx, query, userID, platform).Scan(
		&c.UserID,
		&c.Platform,
		&c.AccessToken,
		&c.RefreshToken,
		&c.AccountID,
		pq.Array(&c.Scopes),
		&c.ConnectedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}
