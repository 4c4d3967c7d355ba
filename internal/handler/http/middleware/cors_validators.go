package middleware

import "strings"

// OriginValidator decides whether a cross-origin request is permitted.
type OriginValidator interface {
	// IsAllowed reports whether origin may read responses.
	IsAllowed(origin string) bool

	// Wildcard reports whether every origin is allowed without echoing it back.
	Wildcard() bool
}

// AnyOrigin allows every origin. Responses carry "Access-Control-Allow-Origin: *".
type AnyOrigin struct{}

// IsAllowed always returns true.
func (AnyOrigin) IsAllowed(string) bool { return true }

// Wildcard always returns true.
func (AnyOrigin) Wildcard() bool { return true }

// WhitelistValidator allows an exact set of origins, compared case-insensitively
// and ignoring a trailing slash.
type WhitelistValidator struct {
	allowed map[string]struct{}
}

// NewWhitelistValidator creates a validator for origins. Blank entries are ignored.
func NewWhitelistValidator(origins []string) *WhitelistValidator {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		if origin = normalizeOrigin(origin); origin != "" {
			allowed[origin] = struct{}{}
		}
	}
	return &WhitelistValidator{allowed: allowed}
}

// IsAllowed reports whether origin is on the whitelist.
func (v *WhitelistValidator) IsAllowed(origin string) bool {
	origin = normalizeOrigin(origin)
	if origin == "" {
		return false
	}
	_, ok := v.allowed[origin]
	return ok
}

// Wildcard always returns false.
func (v *WhitelistValidator) Wildcard() bool { return false }

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(origin)), "/")
}
