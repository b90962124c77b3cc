// Package media validates post attachments and drives them through a
// platform's upload flow, preserving attachment order.
package media

import (
	"context"
	"fmt"
	"log/slog"

	"postplane/internal/platform"
	"postplane/internal/store"
)

const (
	// MaxAttachments caps how many files a single post may carry.
	MaxAttachments = 5

	// MaxFileSize caps a single attachment at 5 MiB.
	MaxFileSize = 5 << 20
)

var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Attachment is one file submitted with a post.
type Attachment struct {
	Filename string
	MimeType string
	Data     []byte
}

// ValidationError reports a rejected attachment set. It is returned
// before any bytes are sent to a platform.
type ValidationError struct {
	Filename string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Filename == "" {
		return "invalid attachments: " + e.Reason
	}
	return fmt.Sprintf("invalid attachment %q: %s", e.Filename, e.Reason)
}

// Pipeline uploads attachments through platform adapters.
type Pipeline struct {
	adapters *platform.Registry
	log      *slog.Logger
}

// NewPipeline creates a media pipeline.
func NewPipeline(adapters *platform.Registry, log *slog.Logger) *Pipeline {
	return &Pipeline{
		adapters: adapters,
		log:      log,
	}
}

// Validate checks the attachment set without touching the network.
// Every attachment is checked so the whole set is accepted or rejected
// as one unit.
func Validate(files []Attachment) error {
	if len(files) > MaxAttachments {
		return &ValidationError{
			Reason: fmt.Sprintf("at most %d attachments allowed, got %d", MaxAttachments, len(files)),
		}
	}
	for _, f := range files {
		if !allowedMimeTypes[f.MimeType] {
			return &ValidationError{
				Filename: f.Filename,
				Reason:   fmt.Sprintf("unsupported media type %q", f.MimeType),
			}
		}
		if len(f.Data) > MaxFileSize {
			return &ValidationError{
				Filename: f.Filename,
				Reason:   fmt.Sprintf("file exceeds %d bytes", MaxFileSize),
			}
		}
		if len(f.Data) == 0 {
			return &ValidationError{
				Filename: f.Filename,
				Reason:   "file is empty",
			}
		}
	}
	return nil
}

// Upload validates all attachments, then registers and uploads each one
// in submission order through the platform's adapter. The first upload
// failure aborts the whole operation; handles already issued for
// earlier files are discarded.
func (p *Pipeline) Upload(ctx context.Context, cred *store.Credential, files []Attachment) ([]string, error) {
	if err := Validate(files); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	adapter, err := p.adapters.Get(cred.Platform)
	if err != nil {
		return nil, err
	}

	handles := make([]string, 0, len(files))
	for _, f := range files {
		up, err := adapter.RegisterUpload(ctx, cred, platform.FileMeta{
			Filename: f.Filename,
			MimeType: f.MimeType,
			Size:     int64(len(f.Data)),
		})
		if err != nil {
			return nil, fmt.Errorf("register upload %q: %w", f.Filename, err)
		}

		handle, err := adapter.UploadBytes(ctx, cred, up, f.Data)
		if err != nil {
			return nil, fmt.Errorf("upload %q: %w", f.Filename, err)
		}

		p.log.Debug("attachment uploaded",
			"platform", cred.Platform,
			"filename", f.Filename,
			"size", len(f.Data),
			"handle", handle,
		)
		handles = append(handles, handle)
	}

	return handles, nil
}
