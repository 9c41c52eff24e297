package http

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"kharcha/internal/ledger"
	"kharcha/internal/log"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "kharcha_session"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// sessionID reads the caller's session from the header, then the cookie.
// A caller without one is issued a fresh id as a cookie.
func sessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		if c, err := r.Cookie(SessionCookie); err == nil {
			id = c.Value
		}
	}
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
	}
	if !sessionIDPattern.MatchString(id) {
		return "", badRequestf("invalid session id")
	}
	w.Header().Set(SessionHeader, id)
	return id, nil
}

// ledgerFor resolves the session ledger, mounting it on first use. A mount
// whose fetch failed still yields a usable ledger in the error state, so
// the failure is only logged here.
func (s *Server) ledgerFor(w http.ResponseWriter, r *http.Request) (*ledger.Ledger, bool) {
	id, err := sessionID(w, r)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}

	l, err := s.sessions.Get(r.Context(), id)
	if l == nil {
		writeError(w, r, err)
		return nil, false
	}
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Session mounted without data",
			log.FieldSessionID, id,
			log.FieldError, err.Error())
	}
	return l, true
}
