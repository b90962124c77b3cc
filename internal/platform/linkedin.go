package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"postplane/internal/store"
)

const defaultLinkedInAPI = "https://api.linkedin.com"

// LinkedIn publishes UGC posts via the LinkedIn v2 REST API.
type LinkedIn struct {
	baseURL    string
	httpClient *http.Client
}

// NewLinkedIn creates a LinkedIn adapter. If baseURL is empty, it
// defaults to the production API host.
func NewLinkedIn(baseURL string) *LinkedIn {
	if baseURL == "" {
		baseURL = defaultLinkedInAPI
	}
	return &LinkedIn{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (l *LinkedIn) Name() store.Platform {
	return store.PlatformLinkedIn
}

// ValidateCredential probes token liveness via the userinfo endpoint.
func (l *LinkedIn) ValidateCredential(ctx context.Context, cred *store.Credential) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/v2/userinfo", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return classifyTransport("validate_credential", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return classifyStatus("validate_credential", resp.StatusCode, body)
	}
	return nil
}

type registerUploadRequest struct {
	RegisterUploadRequest struct {
		Recipes              []string `json:"recipes"`
		Owner                string   `json:"owner"`
		ServiceRelationships []struct {
			RelationshipType string `json:"relationshipType"`
			Identifier       string `json:"identifier"`
		} `json:"serviceRelationships"`
	} `json:"registerUploadRequest"`
}

type registerUploadResponse struct {
	Value struct {
		UploadMechanism map[string]struct {
			UploadURL string `json:"uploadUrl"`
		} `json:"uploadMechanism"`
		Asset string `json:"asset"`
	} `json:"value"`
}

const linkedInUploadMechanism = "com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"

// RegisterUpload reserves an image upload slot. LinkedIn pre-issues the
// asset URN at registration time.
func (l *LinkedIn) RegisterUpload(ctx context.Context, cred *store.Credential, meta FileMeta) (*Upload, error) {
	var body registerUploadRequest
	body.RegisterUploadRequest.Recipes = []string{"urn:li:digitalmediaRecipe:feedshare-image"}
	body.RegisterUploadRequest.Owner = "urn:li:person:" + cred.AccountID
	body.RegisterUploadRequest.ServiceRelationships = []struct {
		RelationshipType string `json:"relationshipType"`
		Identifier       string `json:"identifier"`
	}{{
		RelationshipType: "OWNER",
		Identifier:       "urn:li:userGeneratedContent",
	}}

	var result registerUploadResponse
	if err := l.post(ctx, "register_upload", "/v2/assets?action=registerUpload", cred, body, &result); err != nil {
		return nil, err
	}

	mech, ok := result.Value.UploadMechanism[linkedInUploadMechanism]
	if !ok || mech.UploadURL == "" {
		return nil, &Error{Kind: KindOther, Op: "register_upload", Message: "response missing upload mechanism"}
	}

	return &Upload{
		URL:         mech.UploadURL,
		AssetHandle: result.Value.Asset,
	}, nil
}

// UploadBytes PUTs the raw bytes to the one-time upload URL. The
// definitive handle is the URN issued at registration.
func (l *LinkedIn) UploadBytes(ctx context.Context, cred *store.Credential, up *Upload, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, up.URL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", classifyTransport("upload_bytes", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", classifyStatus("upload_bytes", resp.StatusCode, body)
	}
	return up.AssetHandle, nil
}

type ugcShareMedia struct {
	Status string `json:"status"`
	Media  string `json:"media"`
}

type ugcPostRequest struct {
	Author          string `json:"author"`
	LifecycleState  string `json:"lifecycleState"`
	SpecificContent map[string]struct {
		ShareCommentary struct {
			Text string `json:"text"`
		} `json:"shareCommentary"`
		ShareMediaCategory string          `json:"shareMediaCategory"`
		Media              []ugcShareMedia `json:"media"`
	} `json:"specificContent"`
	Visibility map[string]string `json:"visibility"`
}

type ugcPostResponse struct {
	ID string `json:"id"`
}

// Publish creates a UGC post from content and previously uploaded asset
// URNs, preserving their order.
func (l *LinkedIn) Publish(ctx context.Context, cred *store.Credential, content string, assetHandles []string) (string, error) {
	category := "NONE"
	media := make([]ugcShareMedia, 0, len(assetHandles))
	if len(assetHandles) > 0 {
		category = "IMAGE"
		for _, asset := range assetHandles {
			media = append(media, ugcShareMedia{Status: "READY", Media: asset})
		}
	}

	shareContent := struct {
		ShareCommentary struct {
			Text string `json:"text"`
		} `json:"shareCommentary"`
		ShareMediaCategory string          `json:"shareMediaCategory"`
		Media              []ugcShareMedia `json:"media"`
	}{
		ShareMediaCategory: category,
		Media:              media,
	}
	shareContent.ShareCommentary.Text = content

	body := ugcPostRequest{
		Author:         "urn:li:person:" + cred.AccountID,
		LifecycleState: "PUBLISHED",
		SpecificContent: map[string]struct {
			ShareCommentary struct {
				Text string `json:"text"`
			} `json:"shareCommentary"`
			ShareMediaCategory string          `json:"shareMediaCategory"`
			Media              []ugcShareMedia `json:"media"`
		}{
			"com.linkedin.ugc.ShareContent": shareContent,
		},
		Visibility: map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	var result ugcPostResponse
	if err := l.post(ctx, "publish", "/v2/ugcPosts", cred, body, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

func (l *LinkedIn) post(ctx context.Context, op, path string, cred *store.Credential, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return classifyTransport(op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(op, resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
