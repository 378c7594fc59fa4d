package server

import (
	"context"
	"net/http"

	"cuepoint/internal/engine"
	"cuepoint/internal/session"
)

const (
	sessionHeader = "X-Session-ID"
	sessionCookie = "cuepoint_session"
)

type contextKey string

const sessionIDKey contextKey = "sessionID"

// withSession resolves the visitor session from the X-Session-ID header or
// the session cookie, minting a new ID when neither is present. The resolved
// ID is echoed back on both so SPA clients and plain browsers stay pinned.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(sessionHeader)
		if id == "" {
			if c, err := r.Cookie(sessionCookie); err == nil {
				id = c.Value
			}
		}
		if id == "" {
			id = session.NewSessionID()
		}

		w.Header().Set(sessionHeader, id)
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		ctx := context.WithValue(r.Context(), sessionIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionID returns the resolved session ID for the request.
func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionIDKey).(string)
	return id
}

// store returns the live engine store for the request's session.
func (s *Server) store(r *http.Request) *engine.Store {
	return s.sessions.Get(sessionID(r))
}
