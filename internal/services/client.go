// Backend client for the playlist proxy HTTP API.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/m3usift/m3usift/internal/catalog"
	"github.com/m3usift/m3usift/internal/selection"
	"github.com/m3usift/m3usift/internal/shared"
)

// PlaylistFilename is the download name offered for generated playlists.
const PlaylistFilename = "playlist.m3u"

// GuideFilename is the download name offered for XMLTV guides.
const GuideFilename = "guide.xml"

// BackendClient implements [Service] against the proxy backend.
// Outbound calls share a rate limiter so bulk operations cannot
// hammer the upstream provider.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewBackendClient creates a client for the proxy backend.
func NewBackendClient(baseURL string, client *http.Client) *BackendClient {
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &BackendClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(4), 1),
	}
}

// SetRateLimit caps outbound requests per second.
func (b *BackendClient) SetRateLimit(perSecond float64) {
	if perSecond <= 0 {
		return
	}
	b.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
}

// Name returns the name of the backend.
func (b *BackendClient) Name() string { return "proxy" }

// Categories fetches and decodes the account's category list.
func (b *BackendClient) Categories(ctx context.Context, creds Credentials, includeVOD bool) ([]catalog.Record, error) {
	resp, err := b.get(ctx, CategoriesRequest(creds, includeVOD))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, jsonBackendError(resp, "failed to load categories")
	}

	var records []catalog.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}

	return records, nil
}

// Playlist requests a generated M3U restricted by the filter. Error
// bodies on this endpoint are displayed verbatim when non-empty.
func (b *BackendClient) Playlist(ctx context.Context, creds Credentials, includeVOD bool, filter selection.Filter) (*Payload, error) {
	resp, err := b.get(ctx, PlaylistRequest(creds, includeVOD, filter))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, textBackendError(resp, "playlist generation failed")
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}

	return &Payload{Filename: PlaylistFilename, Data: data}, nil
}

// Guide downloads the account's XMLTV guide.
func (b *BackendClient) Guide(ctx context.Context, creds Credentials) (*Payload, error) {
	resp, err := b.get(ctx, GuideRequest(creds))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, jsonBackendError(resp, "guide download failed")
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read guide: %w", err)
	}

	return &Payload{Filename: GuideFilename, Data: data}, nil
}

func (b *BackendClient) get(ctx context.Context, r Request) (*http.Response, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+r.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}

	return resp, nil
}

// jsonBackendError decodes a structured error body, preferring the
// backend's details field, then error, then the fallback message.
func jsonBackendError(resp *http.Response, fallback string) error {
	message := fallback

	var errResp struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
		if errResp.Details != "" {
			message = errResp.Details
		} else if errResp.Error != "" {
			message = errResp.Error
		}
	}

	return &BackendError{Status: resp.StatusCode, Message: message}
}

// textBackendError carries a plain-text error body through as-is,
// substituting the fallback when the body is empty.
func textBackendError(resp *http.Response, fallback string) error {
	message := fallback

	if body, err := io.ReadAll(resp.Body); err == nil {
		if text := strings.TrimSpace(string(body)); text != "" {
			message = text
		}
	}

	return &BackendError{Status: resp.StatusCode, Message: message}
}
