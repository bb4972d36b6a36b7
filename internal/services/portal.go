package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/m3usift/m3usift/internal/shared"
)

// ParsePortalURL extracts credentials from an Xtream portal link of the
// form http://host:port/get.php?username=u&password=p. Providers hand
// these out as a single copy-paste string, so accepting one saves
// typing the three fields separately.
func ParsePortalURL(raw string) (Credentials, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Credentials{}, fmt.Errorf("%w: empty url", shared.ErrInvalidPortalURL)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", shared.ErrInvalidPortalURL, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Credentials{}, fmt.Errorf("%w: scheme must be http or https", shared.ErrInvalidPortalURL)
	}
	if parsed.Host == "" {
		return Credentials{}, fmt.Errorf("%w: missing host", shared.ErrInvalidPortalURL)
	}

	query := parsed.Query()
	username := query.Get("username")
	password := query.Get("password")
	if username == "" || password == "" {
		return Credentials{}, fmt.Errorf("%w: missing username or password parameter", shared.ErrInvalidPortalURL)
	}

	creds := Credentials{
		URL:      fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host),
		Username: username,
		Password: password,
	}

	return creds, nil
}
