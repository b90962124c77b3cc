package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an entity does not exist.
var ErrNotFound = errors.New("not found")

// DBTransaction defines the methods shared by *sql.DB and *sql.Tx
// This allows us to pass either a connection pool or an active transaction to the repository methods.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Tx interface {
	DBTransaction
	Commit() error
	Rollback() error
}

// UserStore handles retrieving user information for authentication.
type UserStore interface {
	// CreateUser inserts a new user to the database
	CreateUser(ctx context.Context, user *User, hashedKey string) error

	// GetUserByID returns a user by its ID.
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetUserByAPIKeyHash returns a user by its API key hash.
	GetUserByAPIKeyHash(ctx context.Context, hash string) (*User, error)
}

// CredentialStore handles platform credentials. The publish engine only
// ever reads; writes come from the account-linking surface.
type CredentialStore interface {
	// UpsertCredential inserts or replaces the credential for (user, platform).
	UpsertCredential(ctx context.Context, cred *Credential) error

	// GetCredential returns the credential for (user, platform).
	// Returns ErrNotFound if the account is not connected.
	GetCredential(ctx context.Context, userID uuid.UUID, platform Platform) (*Credential, error)
}

// PostStore handles the persistence of Post entities.
type PostStore interface {
	// CreatePost inserts a new post to the database.
	CreatePost(ctx context.Context, tx DBTransaction, post *Post) error

	// GetPostByID returns a post by its ID.
	GetPostByID(ctx context.Context, id uuid.UUID) (*Post, error)
}

// ScheduleStore handles the persistence of Schedule entities.
type ScheduleStore interface {
	// CreateSchedule inserts a new schedule to the database.
	CreateSchedule(ctx context.Context, tx DBTransaction, schedule *Schedule) error

	// GetScheduleByID returns a schedule by its ID.
	GetScheduleByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
}
