package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"postplane/internal/auth"
	"postplane/internal/store"
	"postplane/pkg/api"
)

// CreateUser handles POST /users.
// It generates a new API key, hashes it for storage, and returns the raw key ONCE.
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Email == "" || !strings.Contains(req.Email, "@") {
		h.httpError(w, "A valid email is required", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		h.httpError(w, "Name is required", http.StatusBadRequest)
		return
	}

	apiKey, err := auth.NewKey()
	if err != nil {
		h.httpError(w, "Entropy failure", http.StatusInternalServerError)
		return
	}
	hashedKey := auth.HashKey(apiKey)

	user := &store.User{
		ID:        uuid.New(),
		Email:     req.Email,
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.store.CreateUser(ctx, user, hashedKey); err != nil {
		h.httpError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	// Return the raw key (this is the only time the user sees it)
	resp := api.CreateUserResponse{
		ID:     user.ID.String(),
		Email:  user.Email,
		Name:   user.Name,
		ApiKey: apiKey,
	}
	h.respondJson(w, http.StatusCreated, resp)
}
