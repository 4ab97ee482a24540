package restserver

import (
	"context"
	"net/http"

	"github.com/chrissnell/basinview/internal/log"
	"github.com/chrissnell/basinview/internal/session"
	"github.com/felixge/httpsnoop"
)

type contextKey string

const (
	sessionContextKey contextKey = "session"
	sessionCookieName            = "bv_session"
)

// loggingMiddleware logs every request with its status, size and duration
func (c *Controller) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		entry := log.HTTPLogEntry{
			Method:     r.Method,
			Path:       r.URL.Path,
			Status:     m.Code,
			Duration:   m.Duration,
			Size:       int(m.Written),
			RemoteAddr: r.RemoteAddr,
			UserAgent:  r.UserAgent(),
		}
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			entry.Session = cookie.Value
		}
		log.LogHTTPRequest(entry)
	})
}

// sessionMiddleware attaches the caller's session to the request context,
// starting a new one when the cookie is missing or the session has ended
func (c *Controller) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var s *session.Session
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			s, _ = c.viewer.Sessions.Get(cookie.Value)
		}

		if s == nil {
			s = c.viewer.Sessions.Create()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    s.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   r.TLS != nil, // Only set Secure flag if using HTTPS
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(r *http.Request) *session.Session {
	s, _ := r.Context().Value(sessionContextKey).(*session.Session)
	return s
}
