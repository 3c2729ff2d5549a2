package auth

import (
	"net/http"
	"strings"
)

// Policy determines required roles by request.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a policy with the standard exemptions plus
// any extra paths or prefixes.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := map[string]struct{}{
		"/healthz":     {},
		"/metrics":     {},
		"/api/session": {},
	}
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// IsExempt returns true when a request should skip auth/RBAC.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredRole resolves the required role for the request.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	path := r.URL.Path
	method := r.Method

	switch {
	case strings.HasPrefix(path, "/api/devices/") && strings.HasSuffix(path, "/twin"):
		return RoleOperator, true
	case strings.HasPrefix(path, "/api/devices/") && strings.HasSuffix(path, "/commands"):
		return RoleOperator, true
	case strings.HasPrefix(path, "/api/errors/") && strings.HasSuffix(path, "/resolve"):
		return RoleOperator, true
	case strings.HasPrefix(path, "/api/exports/"):
		return RoleViewer, true
	}

	if strings.HasPrefix(path, "/api/") {
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			return RoleViewer, true
		}
		return RoleOperator, true
	}
	return "", false
}
