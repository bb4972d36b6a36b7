// package services talks to the playlist proxy backend
//
// category discovery, playlist generation, XMLTV guide download
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/m3usift/m3usift/internal/catalog"
	"github.com/m3usift/m3usift/internal/selection"
)

// Service defines the backend surface the wizard and CLI commands depend on.
type Service interface {
	// Categories fetches the account's category records.
	// The include_vod toggle is forwarded to the backend unchanged.
	Categories(ctx context.Context, creds Credentials, includeVOD bool) ([]catalog.Record, error)

	// Playlist generates an M3U playlist restricted by the filter.
	Playlist(ctx context.Context, creds Credentials, includeVOD bool, filter selection.Filter) (*Payload, error)

	// Guide downloads the XMLTV guide for the account.
	Guide(ctx context.Context, creds Credentials) (*Payload, error)

	// Name returns the name of the backend (e.g. "proxy")
	Name() string
}

// Payload is a downloadable response body with its suggested filename.
type Payload struct {
	Filename string
	Data     []byte
}

// BackendError is a non-success response from the backend, carrying
// whatever message the backend supplied.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
}

// ErrorMessage extracts a user-facing message from an error, preferring
// the backend's own words when it sent any.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var backendErr *BackendError
	if errors.As(err, &backendErr) && backendErr.Message != "" {
		return backendErr.Message
	}

	return err.Error()
}
