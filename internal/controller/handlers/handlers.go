// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"postplane/internal/media"
	"postplane/internal/store"
	"postplane/pkg/api"
)

// StoreFactory combines the interfaces needed for the controller to function.
type StoreFactory interface {
	BeginTx(ctx context.Context) (store.Tx, error)
	Ping(ctx context.Context) error
	store.UserStore
	store.CredentialStore
	store.PostStore
	store.ScheduleStore
}

// Uploader pushes attachments through a platform's upload flow and
// returns the issued asset handles in order.
type Uploader interface {
	Upload(ctx context.Context, cred *store.Credential, files []media.Attachment) ([]string, error)
}

// Executor runs one schedule to an outcome. The returned bool reports
// whether a publish attempt ran; false means the claim was not won
// (terminal, not due, or held by a worker).
type Executor interface {
	Execute(ctx context.Context, scheduleID uuid.UUID) (bool, error)
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	store    StoreFactory
	uploader Uploader
	executor Executor
}

// New creates a new Handlers instance with the given dependencies.
func New(s StoreFactory, uploader Uploader, executor Executor) *Handlers {
	return &Handlers{
		store:    s,
		uploader: uploader,
		executor: executor,
	}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}
