// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/m3usift/m3usift/internal/catalog"
	"github.com/m3usift/m3usift/internal/selection"
	"github.com/m3usift/m3usift/internal/services"
)

// MockService is a configurable test double for [services.Service].
// Unset funcs return empty successful results. Call counters track how
// often each endpoint was hit.
type MockService struct {
	CategoriesFunc func(ctx context.Context, creds services.Credentials, includeVOD bool) ([]catalog.Record, error)
	PlaylistFunc   func(ctx context.Context, creds services.Credentials, includeVOD bool, filter selection.Filter) (*services.Payload, error)
	GuideFunc      func(ctx context.Context, creds services.Credentials) (*services.Payload, error)

	CategoriesCalls int
	PlaylistCalls   int
	GuideCalls      int
}

func (m *MockService) Categories(ctx context.Context, creds services.Credentials, includeVOD bool) ([]catalog.Record, error) {
	m.CategoriesCalls++
	if m.CategoriesFunc != nil {
		return m.CategoriesFunc(ctx, creds, includeVOD)
	}
	return []catalog.Record{}, nil
}

func (m *MockService) Playlist(ctx context.Context, creds services.Credentials, includeVOD bool, filter selection.Filter) (*services.Payload, error) {
	m.PlaylistCalls++
	if m.PlaylistFunc != nil {
		return m.PlaylistFunc(ctx, creds, includeVOD, filter)
	}
	return &services.Payload{Filename: services.PlaylistFilename, Data: []byte("#EXTM3U\n")}, nil
}

func (m *MockService) Guide(ctx context.Context, creds services.Credentials) (*services.Payload, error) {
	m.GuideCalls++
	if m.GuideFunc != nil {
		return m.GuideFunc(ctx, creds)
	}
	return &services.Payload{Filename: services.GuideFilename, Data: []byte("<tv></tv>")}, nil
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
