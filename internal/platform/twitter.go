package platform

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"postplane/internal/store"
)

const (
	defaultTwitterAPI    = "https://api.twitter.com"
	defaultTwitterUpload = "https://upload.twitter.com"
)

// Twitter publishes tweets via the v2 API; media goes through the v1.1
// chunked upload flow (INIT issues the media id before any bytes move,
// which is what lets the pipeline store handles ahead of publish).
type Twitter struct {
	apiURL     string
	uploadURL  string
	httpClient *http.Client
}

// NewTwitter creates a Twitter adapter. Empty URLs default to the
// production hosts.
func NewTwitter(apiURL, uploadURL string) *Twitter {
	if apiURL == "" {
		apiURL = defaultTwitterAPI
	}
	if uploadURL == "" {
		uploadURL = defaultTwitterUpload
	}
	return &Twitter{
		apiURL:    apiURL,
		uploadURL: uploadURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *Twitter) Name() store.Platform {
	return store.PlatformTwitter
}

func (t *Twitter) ValidateCredential(ctx context.Context, cred *store.Credential) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.apiURL+"/2/users/me", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)

	resp, err := t.httpClient.Do(req)
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

type mediaUploadResponse struct {
	MediaIDString string `json:"media_id_string"`
}

// RegisterUpload runs the INIT phase of the chunked media upload, which
// assigns the media id up front.
func (t *Twitter) RegisterUpload(ctx context.Context, cred *store.Credential, meta FileMeta) (*Upload, error) {
	endpoint := t.uploadURL + "/1.1/media/upload.json"

	form := url.Values{}
	form.Set("command", "INIT")
	form.Set("total_bytes", strconv.FormatInt(meta.Size, 10))
	form.Set("media_type", meta.MimeType)

	var result mediaUploadResponse
	if err := t.postForm(ctx, "register_upload", endpoint, cred, form, &result); err != nil {
		return nil, err
	}
	if result.MediaIDString == "" {
		return nil, &Error{Kind: KindOther, Op: "register_upload", Message: "response missing media id"}
	}

	return &Upload{
		URL:         endpoint,
		AssetHandle: result.MediaIDString,
	}, nil
}

// UploadBytes runs the APPEND and FINALIZE phases against the media id
// issued at INIT.
func (t *Twitter) UploadBytes(ctx context.Context, cred *store.Credential, up *Upload, data []byte) (string, error) {
	appendForm := url.Values{}
	appendForm.Set("command", "APPEND")
	appendForm.Set("media_id", up.AssetHandle)
	appendForm.Set("segment_index", "0")
	appendForm.Set("media_data", base64.StdEncoding.EncodeToString(data))

	if err := t.postForm(ctx, "upload_bytes", up.URL, cred, appendForm, nil); err != nil {
		return "", err
	}

	finalizeForm := url.Values{}
	finalizeForm.Set("command", "FINALIZE")
	finalizeForm.Set("media_id", up.AssetHandle)

	if err := t.postForm(ctx, "upload_bytes", up.URL, cred, finalizeForm, nil); err != nil {
		return "", err
	}

	return up.AssetHandle, nil
}

type tweetRequest struct {
	Text  string      `json:"text"`
	Media *tweetMedia `json:"media,omitempty"`
}

type tweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type tweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (t *Twitter) Publish(ctx context.Context, cred *store.Credential, content string, assetHandles []string) (string, error) {
	body := tweetRequest{Text: content}
	if len(assetHandles) > 0 {
		body.Media = &tweetMedia{MediaIDs: assetHandles}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)

	resp, err := t.httpClient.Do(req)
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

	var result tweetResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	return result.Data.ID, nil
}

func (t *Twitter) postForm(ctx context.Context, op, endpoint string, cred *store.Credential, form url.Values, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)

	resp, err := t.httpClient.Do(req)
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
