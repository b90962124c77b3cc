package platform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"postplane/internal/store"
)

func testCredential() *store.Credential {
	return &store.Credential{
		Platform:    store.PlatformLinkedIn,
		AccessToken: "token-123",
		AccountID:   "abc",
	}
}

func TestLinkedIn_RegisterUpload(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/assets" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.Header.Get("X-Restli-Protocol-Version"); got != "2.0.0" {
			t.Errorf("unexpected protocol version %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"value": {
				"uploadMechanism": {
					"com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest": {
						"uploadUrl": "https://upload.example.com/slot-1"
					}
				},
				"asset": "urn:li:digitalmediaAsset:D1"
			}
		}`))
	}))
	defer srv.Close()

	li := NewLinkedIn(srv.URL)
	up, err := li.RegisterUpload(context.Background(), testCredential(), FileMeta{
		Filename: "a.png",
		MimeType: "image/png",
		Size:     10,
	})
	if err != nil {
		t.Fatalf("RegisterUpload() error = %v", err)
	}

	if up.URL != "https://upload.example.com/slot-1" {
		t.Errorf("unexpected upload URL %q", up.URL)
	}
	if up.AssetHandle != "urn:li:digitalmediaAsset:D1" {
		t.Errorf("unexpected asset handle %q", up.AssetHandle)
	}

	reg, ok := gotBody["registerUploadRequest"].(map[string]any)
	if !ok {
		t.Fatal("request missing registerUploadRequest")
	}
	if owner := reg["owner"]; owner != "urn:li:person:abc" {
		t.Errorf("unexpected owner %v", owner)
	}
}

func TestLinkedIn_UploadBytes(t *testing.T) {
	var gotBytes []byte
	uploadSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("unexpected method %s", r.Method)
		}
		gotBytes, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer uploadSrv.Close()

	li := NewLinkedIn("http://unused.example.com")
	up := &Upload{URL: uploadSrv.URL, AssetHandle: "urn:li:digitalmediaAsset:D1"}

	handle, err := li.UploadBytes(context.Background(), testCredential(), up, []byte("image-bytes"))
	if err != nil {
		t.Fatalf("UploadBytes() error = %v", err)
	}
	if handle != "urn:li:digitalmediaAsset:D1" {
		t.Errorf("unexpected handle %q", handle)
	}
	if string(gotBytes) != "image-bytes" {
		t.Errorf("unexpected uploaded bytes %q", gotBytes)
	}
}

func TestLinkedIn_Publish(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/ugcPosts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.Write([]byte(`{"id": "urn:li:ugcPost:42"}`))
	}))
	defer srv.Close()

	li := NewLinkedIn(srv.URL)
	postID, err := li.Publish(context.Background(), testCredential(), "hello\n#golang", []string{"urn:li:digitalmediaAsset:D1"})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if postID != "urn:li:ugcPost:42" {
		t.Errorf("unexpected post id %q", postID)
	}

	if gotBody["author"] != "urn:li:person:abc" {
		t.Errorf("unexpected author %v", gotBody["author"])
	}
	if gotBody["lifecycleState"] != "PUBLISHED" {
		t.Errorf("unexpected lifecycleState %v", gotBody["lifecycleState"])
	}

	specific := gotBody["specificContent"].(map[string]any)
	content := specific["com.linkedin.ugc.ShareContent"].(map[string]any)
	if content["shareMediaCategory"] != "IMAGE" {
		t.Errorf("unexpected shareMediaCategory %v", content["shareMediaCategory"])
	}
	commentary := content["shareCommentary"].(map[string]any)
	if commentary["text"] != "hello\n#golang" {
		t.Errorf("unexpected commentary %v", commentary["text"])
	}
	media := content["media"].([]any)
	if len(media) != 1 {
		t.Fatalf("expected 1 media entry, got %d", len(media))
	}
	first := media[0].(map[string]any)
	if first["status"] != "READY" || first["media"] != "urn:li:digitalmediaAsset:D1" {
		t.Errorf("unexpected media entry %v", first)
	}
}

func TestLinkedIn_Publish_NoMedia(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.Write([]byte(`{"id": "urn:li:ugcPost:7"}`))
	}))
	defer srv.Close()

	li := NewLinkedIn(srv.URL)
	if _, err := li.Publish(context.Background(), testCredential(), "text only", nil); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	specific := gotBody["specificContent"].(map[string]any)
	content := specific["com.linkedin.ugc.ShareContent"].(map[string]any)
	if content["shareMediaCategory"] != "NONE" {
		t.Errorf("unexpected shareMediaCategory %v", content["shareMediaCategory"])
	}
}

func TestLinkedIn_Publish_Classification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   Kind
	}{
		{"rate limited", http.StatusTooManyRequests, KindRateLimited},
		{"expired token", http.StatusUnauthorized, KindUnauthorized},
		{"missing scope", http.StatusForbidden, KindPermissionDenied},
		{"server error", http.StatusInternalServerError, KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			li := NewLinkedIn(srv.URL)
			_, err := li.Publish(context.Background(), testCredential(), "text", nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := KindOf(err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLinkedIn_ValidateCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/userinfo" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"sub": "abc"}`))
	}))
	defer srv.Close()

	li := NewLinkedIn(srv.URL)
	if err := li.ValidateCredential(context.Background(), testCredential()); err != nil {
		t.Errorf("ValidateCredential() error = %v", err)
	}

	bad := testCredential()
	bad.AccessToken = "stale"
	err := li.ValidateCredential(context.Background(), bad)
	if err == nil {
		t.Fatal("expected error for stale token")
	}
	if got := KindOf(err); got != KindUnauthorized {
		t.Errorf("KindOf() = %v, want %v", got, KindUnauthorized)
	}
}
