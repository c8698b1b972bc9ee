// Package apicors sets CORS headers for the bearer-key API.
//
// The API never reads cookies, so credentials stay disabled and the
// default policy admits any origin.
package apicors

import (
	"net/http"
	"strings"
)

const (
	allowMethods  = "GET, POST, PATCH, DELETE, OPTIONS"
	allowHeaders  = "Authorization, Content-Type, Accept, X-Request-Id"
	exposeHeaders = "X-Request-Id"
	maxAge        = "86400"
)

// Middleware answers preflights and decorates responses. With no origins
// any origin is allowed; otherwise only the listed ones are echoed back.
func Middleware(origins ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = struct{}{}
		}
	}
	wildcard := len(allowed) == 0

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if wildcard {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Add("Vary", "Origin")
				if origin := r.Header.Get("Origin"); origin != "" {
					if _, ok := allowed[origin]; ok {
						h.Set("Access-Control-Allow-Origin", origin)
					}
				}
			}
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Expose-Headers", exposeHeaders)
			h.Set("Access-Control-Max-Age", maxAge)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
