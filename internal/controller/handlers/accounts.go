package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"postplane/internal/controller/middleware"
	"postplane/internal/store"
	"postplane/pkg/api"
)

// LinkAccount handles POST /accounts.
// It stores (or replaces) the platform credential for the caller.
func (h *Handlers) LinkAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.LinkAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	platform := store.Platform(req.Platform)
	if !store.ValidPlatform(platform) {
		h.httpError(w, "Unknown platform", http.StatusBadRequest)
		return
	}
	if req.AccessToken == "" {
		h.httpError(w, "Access token is required", http.StatusBadRequest)
		return
	}
	if req.AccountID == "" {
		h.httpError(w, "Account id is required", http.StatusBadRequest)
		return
	}

	cred := &store.Credential{
		UserID:       userID,
		Platform:     platform,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		AccountID:    req.AccountID,
		Scopes:       req.Scopes,
		ConnectedAt:  time.Now().UTC(),
	}

	if err := h.store.UpsertCredential(ctx, cred); err != nil {
		h.httpError(w, "Failed to link account", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, api.LinkAccountResponse{
		Platform:    string(cred.Platform),
		AccountID:   cred.AccountID,
		ConnectedAt: cred.ConnectedAt,
	})
}
