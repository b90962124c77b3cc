package executor

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"postplane/internal/platform"
	"postplane/internal/store"
)

type outcome struct {
	completed      bool
	failed         bool
	released       bool
	platformPostID string
	failReason     string
	visibleAfter   time.Time
}

type fakeStore struct {
	schedule   *store.Schedule
	post       *store.Post
	credential *store.Credential
	credErr    error
	claimOK    bool
	claimed    bool
	outcome    outcome
}

func (f *fakeStore) GetScheduleByID(ctx context.Context, id uuid.UUID) (*store.Schedule, error) {
	if f.schedule == nil {
		return nil, store.ErrNotFound
	}
	s := *f.schedule
	return &s, nil
}

func (f *fakeStore) GetPostByID(ctx context.Context, id uuid.UUID) (*store.Post, error) {
	if f.post == nil {
		return nil, store.ErrNotFound
	}
	return f.post, nil
}

func (f *fakeStore) GetCredential(ctx context.Context, userID uuid.UUID, p store.Platform) (*store.Credential, error) {
	if f.credErr != nil {
		return nil, f.credErr
	}
	return f.credential, nil
}

func (f *fakeStore) ClaimSchedule(ctx context.Context, scheduleID uuid.UUID) (bool, error) {
	f.claimed = true
	return f.claimOK, nil
}

func (f *fakeStore) CompleteSchedule(ctx context.Context, scheduleID uuid.UUID, platformPostID string, executedAt time.Time) error {
	f.outcome.completed = true
	f.outcome.platformPostID = platformPostID
	return nil
}

func (f *fakeStore) FailSchedule(ctx context.Context, scheduleID uuid.UUID, reason string, executedAt time.Time) error {
	f.outcome.failed = true
	f.outcome.failReason = reason
	return nil
}

func (f *fakeStore) ReleaseSchedule(ctx context.Context, scheduleID uuid.UUID, visibleAfter time.Time) error {
	f.outcome.released = true
	f.outcome.visibleAfter = visibleAfter
	return nil
}

type scriptedAdapter struct {
	name        store.Platform
	validateErr error
	publishErr  error
	publishID   string
	published   bool
}

func (a *scriptedAdapter) Name() store.Platform { return a.name }

func (a *scriptedAdapter) ValidateCredential(ctx context.Context, cred *store.Credential) error {
	return a.validateErr
}

func (a *scriptedAdapter) RegisterUpload(ctx context.Context, cred *store.Credential, meta platform.FileMeta) (*platform.Upload, error) {
	return &platform.Upload{}, nil
}

func (a *scriptedAdapter) UploadBytes(ctx context.Context, cred *store.Credential, up *platform.Upload, data []byte) (string, error) {
	return "", nil
}

func (a *scriptedAdapter) Publish(ctx context.Context, cred *store.Credential, content string, assetHandles []string) (string, error) {
	a.published = true
	if a.publishErr != nil {
		return "", a.publishErr
	}
	return a.publishID, nil
}

func newFixture(sched *store.Schedule, adapter *scriptedAdapter) (*fakeStore, *Executor) {
	fs := &fakeStore{
		schedule: sched,
		post: &store.Post{
			ID:       sched.PostID,
			UserID:   sched.UserID,
			Platform: sched.Platform,
			Content:  "hello",
		},
		credential: &store.Credential{
			UserID:      sched.UserID,
			Platform:    sched.Platform,
			AccessToken: "t",
		},
		claimOK: true,
	}
	log := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	ex := New(fs, platform.NewRegistry(adapter), DefaultConfig(), log)
	ex.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return fs, ex
}

func claimedSchedule(attempt int) *store.Schedule {
	return &store.Schedule{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		PostID:   uuid.New(),
		Platform: store.PlatformLinkedIn,
		Status:   store.ScheduleStatusClaimed,
		Attempt:  attempt,
	}
}

func TestExecuteClaimed_Success(t *testing.T) {
	sched := claimedSchedule(1)
	adapter := &scriptedAdapter{name: store.PlatformLinkedIn, publishID: "urn:li:ugcPost:1"}
	fs, ex := newFixture(sched, adapter)

	if err := ex.ExecuteClaimed(context.Background(), sched.ID); err != nil {
		t.Fatalf("ExecuteClaimed() error = %v", err)
	}

	if !fs.outcome.completed {
		t.Error("expected completion to be recorded")
	}
	if fs.outcome.platformPostID != "urn:li:ugcPost:1" {
		t.Errorf("unexpected platform post id %q", fs.outcome.platformPostID)
	}
	if fs.outcome.failed || fs.outcome.released {
		t.Error("no failure or release expected")
	}
	if fs.claimed {
		t.Error("the batch claim already owns the schedule, no second claim expected")
	}
}

func TestExecuteClaimed_TerminalScheduleIsNoOp(t *testing.T) {
	sched := claimedSchedule(1)
	sched.Status = store.ScheduleStatusCompleted
	adapter := &scriptedAdapter{name: store.PlatformLinkedIn}
	fs, ex := newFixture(sched, adapter)

	if err := ex.ExecuteClaimed(context.Background(), sched.ID); err != nil {
		t.Fatalf("ExecuteClaimed() error = %v", err)
	}
	if adapter.published {
		t.Error("terminal schedule must not publish")
	}
	if fs.outcome.completed || fs.outcome.failed || fs.outcome.released {
		t.Error("terminal schedule must not record outcomes")
	}
}

func TestExecuteClaimed_ReleasedScheduleIsNoOp(t *testing.T) {
	sched := claimedSchedule(1)
	sched.Status = store.ScheduleStatusPending
	adapter := &scriptedAdapter{name: store.PlatformLinkedIn}
	fs, ex := newFixture(sched, adapter)

	if err := ex.ExecuteClaimed(context.Background(), sched.ID); err != nil {
		t.Fatalf("ExecuteClaimed() error = %v", err)
	}
	if adapter.published {
		t.Error("a schedule no longer claimed must not publish")
	}
	if fs.outcome.completed || fs.outcome.failed || fs.outcome.released {
		t.Error("no outcome expected without a held claim")
	}
}

func TestExecute_TerminalScheduleIsNoOp(t *testing.T) {
	sched := claimedSchedule(1)
	sched.Status = store.ScheduleStatusFailed
	adapter := &scriptedAdapter{name: store.PlatformLinkedIn}
	fs, ex := newFixture(sched, adapter)

	ran, err := ex.Execute(context.Background(), sched.ID)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if ran {
		t.Error("terminal schedule must report not-ran")
	}
	if fs.claimed {
		t.Error("terminal schedule must not attempt the claim")
	}
	if adapter.published {
		t.Error("terminal schedule must not publish")
	}
}

func TestExecute_PendingClaimsFirst(t *testing.T) {
	sched := claimedSchedule(0)
	sched.Status = store.ScheduleStatusPending
	adapter := &scriptedAdapter{name: store.PlatformLinkedIn, publishID: "p-1"}
	fs, ex := newFixture(sched, adapter)

	ran, err := ex.Execute(context.Background(), sched.ID)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !ran {
		t.Error("expected execution to run")
	}
	if !fs.claimed {
		t.Error("pending schedule must be claimed before publish")
	}
	if !fs.outcome.completed {
		t.Error("expected completion")
	}
}

func TestExecute_LostClaimRaceIsNoOp(t *testing.T) {
	sched := claimedSchedule(0)
	sched.Status = store.ScheduleStatusPending
	adapter := &scriptedAdapter{name: store.PlatformLinkedIn}
	fs, ex := newFixture(sched, adapter)
	fs.claimOK = false

	ran, err := ex.Execute(context.Background(), sched.ID)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if ran {
		t.Error("losing the claim must report not-ran")
	}
	if adapter.published {
		t.Error("losing the claim must not publish")
	}
}

// A schedule in claimed status belongs to whichever worker holds the
// live claim. A direct execution request must go through the claim and
// stand down when it is not won, otherwise it would publish alongside
// the owning worker.
func TestExecute_LiveClaimIsNotStolen(t *testing.T) {
	sched := claimedSchedule(1)
	adapter := &scriptedAdapter{name: store.PlatformLinkedIn, publishID: "p-dup"}
	fs, ex := newFixture(sched, adapter)
	fs.claimOK = false

	ran, err := ex.Execute(context.Background(), sched.ID)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !fs.claimed {
		t.Fatal("claimed schedule must still go through the claim")
	}
	if ran {
		t.Error("a live claim held elsewhere must report not-ran")
	}
	if adapter.published {
		t.Error("must not publish concurrently with the claim holder")
	}
	if fs.outcome.completed || fs.outcome.failed || fs.outcome.released {
		t.Error("no outcome may be recorded without owning the claim")
	}
}

func TestExecute_ExpiredClaimIsReclaimed(t *testing.T) {
	sched := claimedSchedule(1)
	adapter := &scriptedAdapter{name: store.PlatformLinkedIn, publishID: "p-2"}
	fs, ex := newFixture(sched, adapter)

	ran, err := ex.Execute(context.Background(), sched.ID)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !ran {
		t.Error("winning an expired claim must run the execution")
	}
	if !fs.claimed {
		t.Error("expired claim must be re-won through the claim")
	}
	if !fs.outcome.completed {
		t.Error("expected completion")
	}
}

func TestExecuteClaimed_MissingCredentialFailsTerminally(t *testing.T) {
	sched := claimedSchedule(1)
	adapter := &scriptedAdapter{name: store.PlatformLinkedIn}
	fs, ex := newFixture(sched, adapter)
	fs.credErr = store.ErrNotFound

	if err := ex.ExecuteClaimed(context.Background(), sched.ID); err != nil {
		t.Fatalf("ExecuteClaimed() error = %v", err)
	}
	if !fs.outcome.failed {
		t.Error("expected terminal failure")
	}
	if adapter.published {
		t.Error("must not publish without a credential")
	}
}

func TestExecuteClaimed_ExpiredTokenFailsTerminally(t *testing.T) {
	sched := claimedSchedule(1)
	adapter := &scriptedAdapter{
		name:        store.PlatformLinkedIn,
		validateErr: &platform.Error{Kind: platform.KindUnauthorized, Op: "validate_credential"},
	}
	fs, ex := newFixture(sched, adapter)

	if err := ex.ExecuteClaimed(context.Background(), sched.ID); err != nil {
		t.Fatalf("ExecuteClaimed() error = %v", err)
	}
	if !fs.outcome.failed {
		t.Error("expected terminal failure for expired token")
	}
	if adapter.published {
		t.Error("must not publish with an invalid token")
	}
}

func TestExecuteClaimed_RateLimitReleasesWithBackoff(t *testing.T) {
	sched := claimedSchedule(2)
	adapter := &scriptedAdapter{
		name:       store.PlatformLinkedIn,
		publishErr: &platform.Error{Kind: platform.KindRateLimited, Op: "publish", StatusCode: 429},
	}
	fs, ex := newFixture(sched, adapter)

	if err := ex.ExecuteClaimed(context.Background(), sched.ID); err != nil {
		t.Fatalf("ExecuteClaimed() error = %v", err)
	}
	if !fs.outcome.released {
		t.Fatal("expected release for retry")
	}
	if fs.outcome.failed || fs.outcome.completed {
		t.Error("no terminal outcome expected")
	}

	// Attempt 2 backs off 2 minutes from the fixed clock.
	want := time.Date(2025, 6, 1, 12, 2, 0, 0, time.UTC)
	if !fs.outcome.visibleAfter.Equal(want) {
		t.Errorf("visibleAfter = %v, want %v", fs.outcome.visibleAfter, want)
	}
}

func TestExecuteClaimed_ExhaustedAttemptsFailTerminally(t *testing.T) {
	sched := claimedSchedule(5)
	adapter := &scriptedAdapter{
		name:       store.PlatformLinkedIn,
		publishErr: &platform.Error{Kind: platform.KindRateLimited, Op: "publish", StatusCode: 429},
	}
	fs, ex := newFixture(sched, adapter)

	if err := ex.ExecuteClaimed(context.Background(), sched.ID); err != nil {
		t.Fatalf("ExecuteClaimed() error = %v", err)
	}
	if !fs.outcome.failed {
		t.Fatal("expected terminal failure after exhausting attempts")
	}
	if fs.outcome.released {
		t.Error("must not release once the budget is spent")
	}
}

func TestExecuteClaimed_PermanentPublishErrorFailsTerminally(t *testing.T) {
	sched := claimedSchedule(1)
	adapter := &scriptedAdapter{
		name:       store.PlatformLinkedIn,
		publishErr: &platform.Error{Kind: platform.KindPermissionDenied, Op: "publish", StatusCode: 403},
	}
	fs, ex := newFixture(sched, adapter)

	if err := ex.ExecuteClaimed(context.Background(), sched.ID); err != nil {
		t.Fatalf("ExecuteClaimed() error = %v", err)
	}
	if !fs.outcome.failed {
		t.Error("expected terminal failure")
	}
	if fs.outcome.released {
		t.Error("permission errors are not retryable")
	}
}

func TestBackoff(t *testing.T) {
	ex := New(&fakeStore{}, platform.NewRegistry(), DefaultConfig(), slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil)))

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Minute},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
		{4, 8 * time.Minute},
		{5, 16 * time.Minute},
		{6, 30 * time.Minute},
		{40, 30 * time.Minute},
	}

	for _, tt := range tests {
		if got := ex.backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExecute_UnknownScheduleReturnsError(t *testing.T) {
	fs := &fakeStore{}
	log := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	ex := New(fs, platform.NewRegistry(), DefaultConfig(), log)

	_, err := ex.Execute(context.Background(), uuid.New())
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
