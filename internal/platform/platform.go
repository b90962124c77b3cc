// Package platform contains the per-platform adapters for the four
// remote operations the publish engine needs: credential validation,
// upload registration, byte upload, and publish.
package platform

import (
	"context"

	"postplane/internal/store"
)

// FileMeta describes one attachment to be uploaded.
type FileMeta struct {
	Filename string
	MimeType string
	Size     int64
}

// Upload is a registered upload slot. Some platforms pre-issue the
// asset handle at registration (LinkedIn asset URN, Twitter media id);
// others only assign it once the bytes arrive, in which case
// AssetHandle is empty here and UploadBytes returns the definitive one.
type Upload struct {
	URL         string
	AssetHandle string
}

// Adapter is the platform-specific implementation of the remote
// operations. The execution coordinator and the media pipeline depend
// only on this interface, never on a concrete platform.
//
// All operations classify failures into a *Error so callers can branch
// on Kind without knowing the platform.
type Adapter interface {
	// Name returns the platform this adapter serves.
	Name() store.Platform

	// ValidateCredential probes whether the stored token is still live.
	ValidateCredential(ctx context.Context, cred *store.Credential) error

	// RegisterUpload reserves an upload slot for one attachment.
	RegisterUpload(ctx context.Context, cred *store.Credential, meta FileMeta) (*Upload, error)

	// UploadBytes sends the raw bytes to a registered slot and returns
	// the definitive asset handle.
	UploadBytes(ctx context.Context, cred *store.Credential, up *Upload, data []byte) (string, error)

	// Publish creates the post from content and previously uploaded
	// asset handles, returning the platform-assigned post id.
	Publish(ctx context.Context, cred *store.Credential, content string, assetHandles []string) (string, error)
}
