// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and Controller.
package api

import "time"

// CreateUserRequest is the request body for creating a new user.
type CreateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreateUserResponse is the response body after creating a user.
// ApiKey is returned exactly once.
type CreateUserResponse struct {
	ID     string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	ApiKey string `json:"api_key"`
}

// LinkAccountRequest is the request body for connecting a platform account.
type LinkAccountRequest struct {
	Platform     string   `json:"platform"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	AccountID    string   `json:"account_id"`
	Scopes       []string `json:"scopes,omitempty"`
}

// LinkAccountResponse is the response body after connecting an account.
type LinkAccountResponse struct {
	Platform    string    `json:"platform"`
	AccountID   string    `json:"account_id"`
	ConnectedAt time.Time `json:"connected_at"`
}

// SchedulePostResponse is the response body after scheduling a post.
type SchedulePostResponse struct {
	PostID        string    `json:"post_id"`
	ScheduleID    string    `json:"schedule_id"`
	Platform      string    `json:"platform"`
	ScheduledTime time.Time `json:"scheduled_time"`
	MediaCount    int       `json:"media_count"`
}

// ScheduleResponse represents a schedule in API responses.
type ScheduleResponse struct {
	ID            string     `json:"id"`
	PostID        string     `json:"post_id"`
	Platform      string     `json:"platform"`
	Status        string     `json:"status"`
	Attempt       int        `json:"attempt"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	ExecutedAt    *time.Time `json:"executed_at,omitempty"`
	Error         *string    `json:"error,omitempty"`
}

// PostResponse represents a post in API responses.
type PostResponse struct {
	ID             string     `json:"id"`
	Platform       string     `json:"platform"`
	Content        string     `json:"content"`
	MediaAssets    []string   `json:"media_assets,omitempty"`
	Status         string     `json:"status"`
	PlatformPostID *string    `json:"platform_post_id,omitempty"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
