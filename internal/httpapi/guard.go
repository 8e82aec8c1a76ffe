package httpapi

import (
	"net/http"
	"net/url"
	"strings"

	"tesig/console/internal/gateway"
	"tesig/console/internal/models"
	"tesig/console/internal/session"

	"github.com/go-chi/chi/v5/middleware"
)

const defaultLanding = "/dashboard"

// RequireSession lets a request through only when the context carries an
// authenticated session. Screens redirect to the login form and remember
// where the user was going; JSON endpoints answer 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := session.FromContext(r.Context())
		if !ok || !s.IsAuthenticated() {
			denyAnonymous(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole admits a session holding one of roles. A session with any
// other role is sent to the default landing page with a message.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := session.FromContext(r.Context())
			if !ok || !s.IsAuthenticated() {
				denyAnonymous(w, r)
				return
			}
			if !s.HasAnyRole(roles...) {
				if isJSONPath(r) {
					writeError(w, middleware.GetReqID(r.Context()), http.StatusForbidden, "forbidden", gateway.MessageForbidden)
					return
				}
				setFlash(w, flashError, gateway.MessageForbidden)
				http.Redirect(w, r, defaultLanding, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func denyAnonymous(w http.ResponseWriter, r *http.Request) {
	if isJSONPath(r) {
		writeError(w, middleware.GetReqID(r.Context()), http.StatusUnauthorized, "unauthorized", gateway.MessageUnauthorized)
		return
	}
	redirectToLogin(w, r)
}

func isJSONPath(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// safeReturnURL accepts only a local absolute path, so a crafted login
// link cannot send the user to another host.
func safeReturnURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return defaultLanding
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return defaultLanding
	}
	if parsed.Path == "/login" || parsed.Path == "/logout" {
		return defaultLanding
	}
	return parsed.RequestURI()
}
