package authn

import (
	"strings"

	"eventbooking/internal/infra/auth/access"
)

// BypassSet lists requests that skip token processing entirely: preflight
// calls, static assets, and the endpoints used to obtain a token.
type BypassSet struct {
	Methods  []string
	Exact    []string
	Prefixes []string
	Suffixes []string
}

func DefaultBypassSet() BypassSet {
	return BypassSet{
		Methods:  []string{"OPTIONS"},
		Exact:    []string{"/", "/index.html"},
		Prefixes: []string{"/static/", "/api/auth/", "/auth/"},
		Suffixes: []string{".css", ".js", ".map", ".ico", ".png", ".jpg", ".jpeg"},
	}
}

// Matches normalises path the same way the access policy does, so a dot
// segment cannot make a request look like an auth endpoint here and a
// protected one there.
func (b BypassSet) Matches(method, path string) bool {
	path = access.CleanPath(path)
	for _, m := range b.Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	for _, p := range b.Exact {
		if path == p {
			return true
		}
	}
	for _, p := range b.Prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, s := range b.Suffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}
