package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/m3usift/m3usift/internal/selection"
	"github.com/m3usift/m3usift/internal/shared"
)

func newTestClient(baseURL string) *BackendClient {
	client := NewBackendClient(baseURL, nil)
	client.SetRateLimit(1000)
	return client
}

func TestNewBackendClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		client := NewBackendClient("", nil)

		if client.baseURL != "http://localhost:5000" {
			t.Errorf("expected default base URL, got %s", client.baseURL)
		}
		if client.httpClient != http.DefaultClient {
			t.Error("expected default http client")
		}
		if client.Name() != "proxy" {
			t.Errorf("expected name proxy, got %s", client.Name())
		}
	})

	t.Run("trims trailing slash", func(t *testing.T) {
		client := NewBackendClient("http://localhost:5000/", nil)

		if client.baseURL != "http://localhost:5000" {
			t.Errorf("expected trimmed base URL, got %s", client.baseURL)
		}
	})
}

func TestBackendClientCategories(t *testing.T) {
	t.Run("decodes records", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/categories" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("include_vod"); got != "true" {
				t.Errorf("expected include_vod=true, got %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[
				{"category_id": 10, "category_name": "BBC", "content_type": "live"},
				{"category_id": "20", "category_name": "Movie X", "content_type": "vod"}
			]`))
		}))
		defer server.Close()

		records, err := newTestClient(server.URL).Categories(context.Background(), testCreds(), true)
		if err != nil {
			t.Fatalf("failed to fetch categories: %v", err)
		}

		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		if records[0].Name != "BBC" || records[1].Name != "Movie X" {
			t.Errorf("unexpected records %+v", records)
		}
	})

	t.Run("prefers details over error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "Authentication Failed", "details": "Invalid username or password"}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Categories(context.Background(), testCreds(), false)
		if err == nil {
			t.Fatal("expected error for 401 response")
		}

		var backendErr *BackendError
		if !errors.As(err, &backendErr) {
			t.Fatalf("expected BackendError, got %v", err)
		}
		if backendErr.Status != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", backendErr.Status)
		}
		if backendErr.Message != "Invalid username or password" {
			t.Errorf("expected details message, got %q", backendErr.Message)
		}
		if got := ErrorMessage(err); got != "Invalid username or password" {
			t.Errorf("ErrorMessage should surface the backend message, got %q", got)
		}
	})

	t.Run("falls back to error field", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error": "SSL Error"}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Categories(context.Background(), testCreds(), false)

		var backendErr *BackendError
		if !errors.As(err, &backendErr) {
			t.Fatalf("expected BackendError, got %v", err)
		}
		if backendErr.Message != "SSL Error" {
			t.Errorf("expected error field message, got %q", backendErr.Message)
		}
	})

	t.Run("generic message for unreadable error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("<html>gateway exploded</html>"))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Categories(context.Background(), testCreds(), false)

		var backendErr *BackendError
		if !errors.As(err, &backendErr) {
			t.Fatalf("expected BackendError, got %v", err)
		}
		if backendErr.Message != "failed to load categories" {
			t.Errorf("expected generic message, got %q", backendErr.Message)
		}
	})
}

func TestBackendClientPlaylist(t *testing.T) {
	t.Run("returns the playlist payload", func(t *testing.T) {
		var seen url.Values
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.URL.Query()
			w.Write([]byte("#EXTM3U\n"))
		}))
		defer server.Close()

		filter := selection.Filter{Mode: selection.ModeExclude, Groups: []string{"BBC"}}
		payload, err := newTestClient(server.URL).Playlist(context.Background(), testCreds(), false, filter)
		if err != nil {
			t.Fatalf("failed to generate playlist: %v", err)
		}

		if payload.Filename != PlaylistFilename {
			t.Errorf("expected filename %s, got %s", PlaylistFilename, payload.Filename)
		}
		if string(payload.Data) != "#EXTM3U\n" {
			t.Errorf("unexpected payload %q", payload.Data)
		}
		if seen.Get("nostreamproxy") != "true" {
			t.Errorf("expected nostreamproxy=true on the wire, got %v", seen)
		}
		if seen.Get("unwanted_groups") != "BBC" {
			t.Errorf("expected unwanted_groups=BBC on the wire, got %v", seen)
		}
	})

	t.Run("plain text error shown verbatim", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream provider timed out"))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Playlist(context.Background(), testCreds(), false, selection.Filter{})

		var backendErr *BackendError
		if !errors.As(err, &backendErr) {
			t.Fatalf("expected BackendError, got %v", err)
		}
		if backendErr.Message != "upstream provider timed out" {
			t.Errorf("expected verbatim body, got %q", backendErr.Message)
		}
	})

	t.Run("empty error body falls back to generic", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Playlist(context.Background(), testCreds(), false, selection.Filter{})

		var backendErr *BackendError
		if !errors.As(err, &backendErr) {
			t.Fatalf("expected BackendError, got %v", err)
		}
		if backendErr.Message != "playlist generation failed" {
			t.Errorf("expected generic message, got %q", backendErr.Message)
		}
	})
}

func TestBackendClientGuide(t *testing.T) {
	t.Run("returns the guide payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/xmltv" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`<?xml version="1.0"?><tv></tv>`))
		}))
		defer server.Close()

		payload, err := newTestClient(server.URL).Guide(context.Background(), testCreds())
		if err != nil {
			t.Fatalf("failed to download guide: %v", err)
		}

		if payload.Filename != GuideFilename {
			t.Errorf("expected filename %s, got %s", GuideFilename, payload.Filename)
		}
		if len(payload.Data) == 0 {
			t.Error("expected guide data")
		}
	})

	t.Run("decodes structured errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": "Missing Parameters", "details": "Required parameters: url, username, and password"}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Guide(context.Background(), testCreds())

		var backendErr *BackendError
		if !errors.As(err, &backendErr) {
			t.Fatalf("expected BackendError, got %v", err)
		}
		if backendErr.Message != "Required parameters: url, username, and password" {
			t.Errorf("expected details message, got %q", backendErr.Message)
		}
	})
}

func TestBackendClientTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := newTestClient(server.URL).Categories(context.Background(), testCreds(), false)
	if err == nil {
		t.Fatal("expected transport error for closed server")
	}
	if !errors.Is(err, shared.ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}
