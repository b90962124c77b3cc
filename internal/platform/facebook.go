package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"postplane/internal/store"
)

const defaultFacebookAPI = "https://graph.facebook.com/v20.0"

// Facebook publishes to a page or profile feed via the Graph API.
// Photos are first uploaded unpublished; the Graph API only assigns the
// photo id once the bytes arrive, so the definitive handle comes out of
// UploadBytes rather than RegisterUpload.
type Facebook struct {
	baseURL    string
	httpClient *http.Client
}

// NewFacebook creates a Facebook adapter. If baseURL is empty, it
// defaults to the production Graph API host.
func NewFacebook(baseURL string) *Facebook {
	if baseURL == "" {
		baseURL = defaultFacebookAPI
	}
	return &Facebook{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (f *Facebook) Name() store.Platform {
	return store.PlatformFacebook
}

func (f *Facebook) ValidateCredential(ctx context.Context, cred *store.Credential) error {
	endpoint := f.baseURL + "/me?fields=id&access_token=" + url.QueryEscape(cred.AccessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
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

// RegisterUpload points at the unpublished-photos edge for the account.
// The handle is assigned by UploadBytes.
func (f *Facebook) RegisterUpload(ctx context.Context, cred *store.Credential, meta FileMeta) (*Upload, error) {
	return &Upload{
		URL: f.baseURL + "/" + cred.AccountID + "/photos",
	}, nil
}

type photoUploadResponse struct {
	ID string `json:"id"`
}

// UploadBytes uploads one photo unpublished and returns its id.
func (f *Facebook) UploadBytes(ctx context.Context, cred *store.Credential, up *Upload, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("source", "upload")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	mw.WriteField("published", "false")
	mw.WriteField("access_token", cred.AccessToken)
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, up.URL, &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", classifyTransport("upload_bytes", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classifyStatus("upload_bytes", resp.StatusCode, respBody)
	}

	var result photoUploadResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if result.ID == "" {
		return "", &Error{Kind: KindOther, Op: "upload_bytes", Message: "response missing photo id"}
	}
	return result.ID, nil
}

type feedPostResponse struct {
	ID string `json:"id"`
}

// Publish posts to the account feed, attaching previously uploaded
// photos in order.
func (f *Facebook) Publish(ctx context.Context, cred *store.Credential, content string, assetHandles []string) (string, error) {
	form := url.Values{}
	form.Set("message", content)
	form.Set("access_token", cred.AccessToken)
	for i, handle := range assetHandles {
		form.Set(fmt.Sprintf("attached_media[%d]", i), `{"media_fbid":"`+handle+`"}`)
	}

	endpoint := f.baseURL + "/" + cred.AccountID + "/feed"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", classifyTransport("publish", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classifyStatus("publish", resp.StatusCode, respBody)
	}

	var result feedPostResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	return result.ID, nil
}
