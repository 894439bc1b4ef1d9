package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jrsteele09/go-materials-client/token"
)

// SessionStatus describes the signed-in session without exposing its tokens.
type SessionStatus struct {
	SignedIn  bool       `json:"signed_in"`
	FullName  string     `json:"full_name,omitempty"`
	Subject   string     `json:"subject,omitempty"`
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// SessionHandler reports whether a session is held and when its access token expires.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := SessionStatus{}
		if current := s.sessions.Current(); current.Valid() {
			status.SignedIn = true
			status.Active = true
			if user, err := current.User(); err == nil {
				status.FullName = user.FullName
			}
			if in, err := token.Introspect(current.AccessToken); err == nil {
				status.Subject = in.Subject
				status.Active = in.Active
				status.ExpiresAt = in.Exp
			}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(status)
	}
}
