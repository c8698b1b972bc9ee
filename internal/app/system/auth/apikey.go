// Package auth guards the folder API with bearer API keys.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dalemusser/folderforge/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// ParseKeys splits a comma-separated key list. Blank entries are dropped,
// so "old,new" lets two keys be valid while clients rotate.
func ParseKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// BearerToken returns the token of an "Authorization: Bearer <token>"
// header. ok is false when the header is missing or uses another scheme.
func BearerToken(r *http.Request) (token string, ok bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// APIKeyAuth returns middleware that admits requests carrying one of the
// configured keys. keys is a comma-separated list. With no key configured
// every request is rejected. CORS preflights pass through untouched.
func APIKeyAuth(keys string, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	valid := ParseKeys(keys)
	if len(valid) == 0 {
		logger.Warn("api key not configured; all API requests will be rejected")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if len(valid) == 0 {
				jsonutil.Unauthorized(w, "API authentication not configured")
				return
			}

			token, ok := BearerToken(r)
			if !ok {
				logger.Debug("api request rejected: missing bearer token",
					zap.String("path", r.URL.Path))
				jsonutil.Unauthorized(w, "missing bearer token")
				return
			}
			if !matches(valid, token) {
				logger.Warn("api request rejected: invalid key",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr))
				jsonutil.Unauthorized(w, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// matches compares against every key so timing does not reveal which
// key, if any, was close.
func matches(valid []string, token string) bool {
	found := 0
	for _, k := range valid {
		found |= subtle.ConstantTimeCompare([]byte(k), []byte(token))
	}
	return found == 1
}
