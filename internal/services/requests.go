package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/m3usift/m3usift/internal/selection"
	"github.com/m3usift/m3usift/internal/shared"
)

// Credentials identifies one account on the upstream Xtream service.
type Credentials struct {
	URL      string
	Username string
	Password string
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (c Credentials) Trimmed() Credentials {
	return Credentials{
		URL:      strings.TrimSpace(c.URL),
		Username: strings.TrimSpace(c.Username),
		Password: strings.TrimSpace(c.Password),
	}
}

// Validate checks that every credential field is present. It never
// touches the network; callers run it before building any request.
func (c Credentials) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingCredential)
	}
	if c.Username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingCredential)
	}
	if c.Password == "" {
		return fmt.Errorf("%w: password", shared.ErrMissingCredential)
	}

	return nil
}

// Request describes one backend call before it is bound to a base URL.
type Request struct {
	Path  string
	Query url.Values
}

// Encode renders the request as a path with query string.
func (r Request) Encode() string {
	if len(r.Query) == 0 {
		return r.Path
	}

	return r.Path + "?" + r.Query.Encode()
}

func baseQuery(creds Credentials) url.Values {
	q := url.Values{}
	q.Set("url", creds.URL)
	q.Set("username", creds.Username)
	q.Set("password", creds.Password)

	return q
}

// CategoriesRequest builds the category discovery request. include_vod
// is a presence flag: the key only appears on the wire when the toggle
// is on, never as "false".
func CategoriesRequest(creds Credentials, includeVOD bool) Request {
	q := baseQuery(creds)
	if includeVOD {
		q.Set("include_vod", "true")
	}

	return Request{Path: "/categories", Query: q}
}

// PlaylistRequest builds the playlist generation request. The filter's
// group names ride in wanted_groups or unwanted_groups depending on the
// mode, and an empty filter emits neither key. The backend matches on
// names joined by a bare comma with no escaping, so a group name that
// itself contains a comma splits into two filters on the wire. Known
// limitation of the backend contract.
func PlaylistRequest(creds Credentials, includeVOD bool, filter selection.Filter) Request {
	q := baseQuery(creds)
	q.Set("nostreamproxy", "true")
	if includeVOD {
		q.Set("include_vod", "true")
	}

	if !filter.Empty() {
		key := "unwanted_groups"
		if filter.Mode == selection.ModeInclude {
			key = "wanted_groups"
		}
		q.Set(key, strings.Join(filter.Groups, ","))
	}

	return Request{Path: "/m3u", Query: q}
}

// GuideRequest builds the XMLTV guide download request. The guide
// endpoint takes the bare credentials and supports no filtering.
func GuideRequest(creds Credentials) Request {
	return Request{Path: "/xmltv", Query: baseQuery(creds)}
}
