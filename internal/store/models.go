// Package store contains the database layer for postplane.
package store

import (
	"time"

	"github.com/google/uuid"
)

// Platform identifies a social network target for a post.
type Platform string

const (
	PlatformLinkedIn Platform = "linkedin"
	PlatformTwitter  Platform = "twitter"
	PlatformFacebook Platform = "facebook"
)

// ValidPlatform reports whether p is a known platform.
func ValidPlatform(p Platform) bool {
	switch p {
	case PlatformLinkedIn, PlatformTwitter, PlatformFacebook:
		return true
	}
	return false
}

// User represents an account holder in the system.
// All operations must be scoped by UserID.
type User struct {
	ID             uuid.UUID
	Email          string
	Name           string
	RateLimit      int
	RateLimitBurst int
	CreatedAt      time.Time
}

// Credential holds a user's access token for one platform.
// It is written by the account-linking surface and consumed
// read-only by the publish engine.
type Credential struct {
	UserID       uuid.UUID
	Platform     Platform
	AccessToken  string
	RefreshToken string
	AccountID    string
	Scopes       []string
	ConnectedAt  time.Time
}

// Post represents one user-authored content item.
// MediaAssets holds platform-issued handles in upload order; the order
// is fixed at creation and never changes.
type Post struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Platform       Platform
	Content        string
	MediaAssets    []string
	Status         PostStatus
	PlatformPostID *string
	PostedAt       *time.Time
	CreatedAt      time.Time
}

// PostStatus represents the state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPosted    PostStatus = "posted"
	PostStatusFailed    PostStatus = "failed"
)

// Schedule represents one deferred publish request, 1:1 with a Post.
// ScheduledTime is an absolute UTC instant.
type Schedule struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	PostID        uuid.UUID
	Platform      Platform
	ScheduledTime time.Time
	Status        ScheduleStatus
	Attempt       int
	ExecutedAt    *time.Time
	ErrorMessage  *string
	CreatedAt     time.Time
}

// ScheduleStatus represents the state of a schedule.
// Claimed is an internal in-progress marker; completed and failed are
// terminal and never transitioned away from.
type ScheduleStatus string

const (
	ScheduleStatusPending   ScheduleStatus = "pending"
	ScheduleStatusClaimed   ScheduleStatus = "claimed"
	ScheduleStatusCompleted ScheduleStatus = "completed"
	ScheduleStatusFailed    ScheduleStatus = "failed"
)

// Terminal reports whether no further transition is ever applied.
func (s ScheduleStatus) Terminal() bool {
	return s == ScheduleStatusCompleted || s == ScheduleStatusFailed
}
