package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"postplane/internal/controller/middleware"
	"postplane/internal/media"
	"postplane/internal/platform"
	"postplane/internal/store"
	"postplane/pkg/api"
)

// multipartMemoryLimit bounds the in-memory portion of a multipart
// parse; attachments beyond this spill to temp files.
const multipartMemoryLimit = 8 << 20

// SchedulePost handles POST /posts/schedule (multipart).
// Form fields: content, platform, scheduled_time (RFC 3339, future),
// hashtags (JSON array, optional), plus up to five "media" files.
// Attachments are uploaded to the platform first; the post and its
// schedule are then created in one transaction.
func (h *Handlers) SchedulePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		h.httpError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	content := r.FormValue("content")
	if strings.TrimSpace(content) == "" {
		h.httpError(w, "Content is required", http.StatusBadRequest)
		return
	}

	plat := store.Platform(r.FormValue("platform"))
	if !store.ValidPlatform(plat) {
		h.httpError(w, "Unknown platform", http.StatusBadRequest)
		return
	}

	scheduledTime, err := time.Parse(time.RFC3339, r.FormValue("scheduled_time"))
	if err != nil {
		h.httpError(w, "scheduled_time must be RFC 3339", http.StatusBadRequest)
		return
	}
	scheduledTime = scheduledTime.UTC()
	if !scheduledTime.After(time.Now().UTC()) {
		h.httpError(w, "scheduled_time must be in the future", http.StatusBadRequest)
		return
	}

	if tags := r.FormValue("hashtags"); tags != "" {
		var hashtags []string
		if err := json.Unmarshal([]byte(tags), &hashtags); err != nil {
			h.httpError(w, "hashtags must be a JSON array of strings", http.StatusBadRequest)
			return
		}
		content = mergeHashtags(content, hashtags)
	}

	files, err := readAttachments(r)
	if err != nil {
		h.httpError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := media.Validate(files); err != nil {
		h.httpError(w, err.Error(), http.StatusBadRequest)
		return
	}

	cred, err := h.store.GetCredential(ctx, userID, plat)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "No "+string(plat)+" account connected", http.StatusBadRequest)
			return
		}
		h.httpError(w, "Internal database error", http.StatusInternalServerError)
		return
	}

	assetHandles, err := h.uploader.Upload(ctx, cred, files)
	if err != nil {
		var ve *media.ValidationError
		if errors.As(err, &ve) {
			h.httpError(w, ve.Error(), http.StatusBadRequest)
			return
		}
		if platform.KindOf(err) == platform.KindUnauthorized {
			h.httpError(w, "Platform rejected the stored credential", http.StatusBadGateway)
			return
		}
		h.httpError(w, "Media upload failed", http.StatusBadGateway)
		return
	}

	now := time.Now().UTC()
	post := &store.Post{
		ID:          uuid.New(),
		UserID:      userID,
		Platform:    plat,
		Content:     content,
		MediaAssets: assetHandles,
		Status:      store.PostStatusScheduled,
		CreatedAt:   now,
	}
	schedule := &store.Schedule{
		ID:            uuid.New(),
		UserID:        userID,
		PostID:        post.ID,
		Platform:      plat,
		ScheduledTime: scheduledTime,
		Status:        store.ScheduleStatusPending,
		CreatedAt:     now,
	}

	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		h.httpError(w, "Internal database error", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	if err := h.store.CreatePost(ctx, tx, post); err != nil {
		h.httpError(w, "Failed to create post", http.StatusInternalServerError)
		return
	}
	if err := h.store.CreateSchedule(ctx, tx, schedule); err != nil {
		h.httpError(w, "Failed to create schedule", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(); err != nil {
		h.httpError(w, "Failed to commit transaction", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusCreated, api.SchedulePostResponse{
		PostID:        post.ID.String(),
		ScheduleID:    schedule.ID.String(),
		Platform:      string(plat),
		ScheduledTime: scheduledTime,
		MediaCount:    len(assetHandles),
	})
}

// GetPost handles GET /posts/{id}.
func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	postID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid post id", http.StatusBadRequest)
		return
	}

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	post, err := h.store.GetPostByID(ctx, postID)
	if err != nil || post.UserID != userID {
		h.httpError(w, "Post not found", http.StatusNotFound)
		return
	}

	h.respondJson(w, http.StatusOK, api.PostResponse{
		ID:             post.ID.String(),
		Platform:       string(post.Platform),
		Content:        post.Content,
		MediaAssets:    post.MediaAssets,
		Status:         string(post.Status),
		PlatformPostID: post.PlatformPostID,
		PostedAt:       post.PostedAt,
		CreatedAt:      post.CreatedAt,
	})
}

// mergeHashtags appends the tags to the content on a new line, each
// prefixed with '#' unless the caller already did.
func mergeHashtags(content string, hashtags []string) string {
	tags := make([]string, 0, len(hashtags))
	for _, tag := range hashtags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return content
	}
	return content + "\n" + strings.Join(tags, " ")
}

func readAttachments(r *http.Request) ([]media.Attachment, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	files := r.MultipartForm.File["media"]
	attachments := make([]media.Attachment, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, errors.New("failed to read attachment " + fh.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, errors.New("failed to read attachment " + fh.Filename)
		}

		mimeType := fh.Header.Get("Content-Type")
		attachments = append(attachments, media.Attachment{
			Filename: fh.Filename,
			MimeType: mimeType,
			Data:     data,
		})
	}
	if len(attachments) == 0 {
		return nil, nil
	}
	return attachments, nil
}
