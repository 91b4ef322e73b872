package strava

import (
	"fmt"
	"strings"
)

// Scope represents an OAuth2 scope required to access specific Strava API
// endpoints.
type Scope string

const (
	// ScopeRead allows reading public segments, routes, profile data, posts,
	// events and club feeds.
	ScopeRead Scope = "read"

	// ScopeReadAll extends ScopeRead to private routes, segments and events.
	ScopeReadAll Scope = "read_all"

	// ScopeProfileReadAll allows reading all profile information regardless
	// of visibility settings.
	ScopeProfileReadAll Scope = "profile:read_all"

	// ScopeProfileWrite allows updating the athlete's weight and FTP and
	// starring or unstarring segments.
	ScopeProfileWrite Scope = "profile:write"

	// ScopeActivityRead allows reading activities visible to Everyone and
	// Followers.
	ScopeActivityRead Scope = "activity:read"

	// ScopeActivityReadAll extends ScopeActivityRead to Only You activities.
	ScopeActivityReadAll Scope = "activity:read_all"

	// ScopeActivityWrite allows creating manual activities and uploads, and
	// editing activities.
	ScopeActivityWrite Scope = "activity:write"
)

var knownScopes = map[Scope]bool{
	ScopeRead:            true,
	ScopeReadAll:         true,
	ScopeProfileReadAll:  true,
	ScopeProfileWrite:    true,
	ScopeActivityRead:    true,
	ScopeActivityReadAll: true,
	ScopeActivityWrite:   true,
}

// joinScopes renders a scope list in the comma-separated form the
// authorization endpoint expects, validating each entry.
func joinScopes(scopes []Scope) (string, error) {
	if len(scopes) == 0 {
		return string(ScopeRead), nil
	}
	parts := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if !knownScopes[s] {
			return "", fmt.Errorf("strava: unknown scope %q", s)
		}
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ","), nil
}
