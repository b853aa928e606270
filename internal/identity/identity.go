// Package identity maps browser cookies to login sessions and guards the
// routes that need one.
package identity

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/NadhiyaSeelam/MindCare-AI/internal/chat"
)

const (
	// SessionCookieName carries the opaque session token.
	SessionCookieName = "mindcare_session"
	sessionCookieAge  = 24 * time.Hour
)

type contextKey int

const (
	sessionKey contextKey = iota
	tokenKey
)

var tokenPattern = regexp.MustCompile(`^[a-f0-9-]{36}$`)

// SessionFromContext returns the session resolved by Middleware, or nil.
func SessionFromContext(ctx context.Context) *chat.Session {
	if v, ok := ctx.Value(sessionKey).(*chat.Session); ok {
		return v
	}
	return nil
}

// TokenFromContext returns the session token presented with the request.
func TokenFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(tokenKey).(string); ok {
		return v
	}
	return ""
}

// WithSession returns ctx carrying sess and its token.
func WithSession(ctx context.Context, token string, sess *chat.Session) context.Context {
	ctx = context.WithValue(ctx, tokenKey, token)
	return context.WithValue(ctx, sessionKey, sess)
}

func tokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || !tokenPattern.MatchString(c.Value) {
		return ""
	}
	return c.Value
}

// SetSessionCookie hands token to the browser.
func SetSessionCookie(w http.ResponseWriter, token string, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionCookieAge.Seconds()),
		Expires:  time.Now().Add(sessionCookieAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
}

// ClearSessionCookie removes the session cookie from the browser.
func ClearSessionCookie(w http.ResponseWriter, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
}

// Middleware resolves the session cookie against reg and stores the result
// in the request context. Requests without a live session pass through with
// no session attached.
func Middleware(reg *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if sess := reg.Lookup(token); sess != nil {
				r = r.WithContext(WithSession(r.Context(), token, sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession rejects requests that carry no active session.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFromContext(r.Context()).Active() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"session expired, please log in again"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
