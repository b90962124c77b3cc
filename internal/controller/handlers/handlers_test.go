package handlers

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"postplane/internal/media"
	"postplane/internal/store"
)

// Mock transaction
type mockTx struct {
	commitErr  error
	committed  bool
	rolledBack bool
}

func (m *mockTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (m *mockTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (m *mockTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (m *mockTx) Commit() error {
	m.committed = true
	return m.commitErr
}

func (m *mockTx) Rollback() error {
	m.rolledBack = true
	return nil
}

// Mock Store
type mockStore struct {
	beginTxErr error
	tx         *mockTx
	pingErr    error

	// User hooks
	createUserErr error
	userResp      *store.User
	userErr       error

	// Credential hooks
	upsertCredentialErr error
	credentialResp      *store.Credential
	credentialErr       error

	// Post hooks
	createPostErr error
	postResp      *store.Post
	postErr       error

	// Schedule hooks
	createScheduleErr error
	scheduleResp      *store.Schedule
	scheduleErr       error

	// Spies (to verify arguments passed by handlers)
	capturedPost     *store.Post
	capturedSchedule *store.Schedule
	capturedCred     *store.Credential
}

func (m *mockStore) BeginTx(ctx context.Context) (store.Tx, error) {
	if m.beginTxErr != nil {
		return nil, m.beginTxErr
	}
	if m.tx == nil {
		m.tx = &mockTx{}
	}
	return m.tx, nil
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockStore) CreateUser(ctx context.Context, user *store.User, hashedKey string) error {
	return m.createUserErr
}

func (m *mockStore) GetUserByID(ctx context.Context, id uuid.UUID) (*store.User, error) {
	return m.userResp, m.userErr
}

func (m *mockStore) GetUserByAPIKeyHash(ctx context.Context, hash string) (*store.User, error) {
	return m.userResp, m.userErr
}

func (m *mockStore) UpsertCredential(ctx context.Context, cred *store.Credential) error {
	m.capturedCred = cred
	return m.upsertCredentialErr
}

func (m *mockStore) GetCredential(ctx context.Context, userID uuid.UUID, platform store.Platform) (*store.Credential, error) {
	return m.credentialResp, m.credentialErr
}

func (m *mockStore) CreatePost(ctx context.Context, tx store.DBTransaction, post *store.Post) error {
	m.capturedPost = post
	return m.createPostErr
}

func (m *mockStore) GetPostByID(ctx context.Context, id uuid.UUID) (*store.Post, error) {
	return m.postResp, m.postErr
}

func (m *mockStore) CreateSchedule(ctx context.Context, tx store.DBTransaction, schedule *store.Schedule) error {
	m.capturedSchedule = schedule
	return m.createScheduleErr
}

func (m *mockStore) GetScheduleByID(ctx context.Context, id uuid.UUID) (*store.Schedule, error) {
	return m.scheduleResp, m.scheduleErr
}

// Mock uploader
type mockUploader struct {
	handles       []string
	err           error
	capturedFiles []media.Attachment
}

func (m *mockUploader) Upload(ctx context.Context, cred *store.Credential, files []media.Attachment) ([]string, error) {
	m.capturedFiles = files
	if m.err != nil {
		return nil, m.err
	}
	return m.handles, nil
}

// Mock executor
type mockExecutor struct {
	err      error
	skipped  bool // simulates a claim that was not won
	executed []uuid.UUID
}

func (m *mockExecutor) Execute(ctx context.Context, scheduleID uuid.UUID) (bool, error) {
	m.executed = append(m.executed, scheduleID)
	return !m.skipped && m.err == nil, m.err
}

func testUser() *store.User {
	return &store.User{
		ID:        uuid.New(),
		Email:     "a@example.com",
		Name:      "Test User",
		CreatedAt: time.Now().UTC(),
	}
}
