package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"postplane/internal/controller/middleware"
	"postplane/pkg/api"
)

// GetSchedule handles GET /schedules/{id}.
func (h *Handlers) GetSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	scheduleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid schedule id", http.StatusBadRequest)
		return
	}

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	schedule, err := h.store.GetScheduleByID(ctx, scheduleID)
	if err != nil || schedule.UserID != userID {
		h.httpError(w, "Schedule not found", http.StatusNotFound)
		return
	}

	h.respondJson(w, http.StatusOK, api.ScheduleResponse{
		ID:            schedule.ID.String(),
		PostID:        schedule.PostID.String(),
		Platform:      string(schedule.Platform),
		Status:        string(schedule.Status),
		Attempt:       schedule.Attempt,
		ScheduledTime: schedule.ScheduledTime,
		ExecutedAt:    schedule.ExecutedAt,
		Error:         schedule.ErrorMessage,
	})
}

// ExecuteSchedule handles POST /internal/schedules/{id}/execute.
// It runs one schedule immediately, bypassing the poll interval. The
// claim step still applies, so concurrent poller work stays safe.
func (h *Handlers) ExecuteSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	scheduleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid schedule id", http.StatusBadRequest)
		return
	}

	if _, err := h.store.GetScheduleByID(ctx, scheduleID); err != nil {
		h.httpError(w, "Schedule not found", http.StatusNotFound)
		return
	}

	ran, err := h.executor.Execute(ctx, scheduleID)
	if err != nil {
		h.httpError(w, "Execution failed", http.StatusInternalServerError)
		return
	}
	if !ran {
		// Terminal, not yet due, or claimed by a worker right now.
		h.respondJson(w, http.StatusConflict, map[string]string{"status": "skipped"})
		return
	}

	h.respondJson(w, http.StatusAccepted, map[string]string{"status": "executed"})
}
