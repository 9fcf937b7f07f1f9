package webapp

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/phillip-england/jobcard/internal/workflow"
)

type contextKey int

const sessionIDKey contextKey = iota

// withSession attaches the caller's workflow session, starting a fresh
// unauthenticated one when the cookie is missing or stale.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			id = strings.TrimSpace(cookie.Value)
		}
		if id == "" || s.store.View(id, func(*workflow.Session) {}) != nil {
			sess, err := s.store.Create()
			if err != nil {
				s.log.Error("create session", zap.Error(err))
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
			id = sess.ID
			s.setSessionCookie(w, id)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionIDKey, id)))
	})
}

func sessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// csrfProtect checks the per-session token on state-changing requests. The
// token comes from the form field or the X-CSRF-Token header.
func (s *Server) csrfProtect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			next.ServeHTTP(w, r)
			return
		}

		if err := s.parseForm(w, r); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}

		token := strings.TrimSpace(r.Header.Get(csrfHeaderName))
		if token == "" {
			token = strings.TrimSpace(r.FormValue(csrfFieldName))
		}
		var expected string
		err := s.store.View(sessionIDFromContext(r.Context()), func(sess *workflow.Session) {
			expected = sess.CSRFToken
		})
		if err != nil || token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			s.log.Warn("csrf validation failed", zap.String("path", r.URL.Path))
			http.Error(w, "csrf validation failed", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// parseForm bounds the body before parsing; uploads carry up to two files.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.opts.MaxUploadBytes+(1<<20))
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(s.opts.MaxUploadBytes)
	}
	return r.ParseForm()
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(s.store.TTL().Seconds()),
		Expires:  time.Now().UTC().Add(s.store.TTL()),
	})
}

func expireSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

// update runs fn on the request's session. A vanished session sends the user
// back to the login page.
func (s *Server) update(w http.ResponseWriter, r *http.Request, fn func(*workflow.Session) error) bool {
	err := s.store.Update(sessionIDFromContext(r.Context()), fn)
	if errors.Is(err, workflow.ErrNotFound) {
		expireSessionCookie(w)
		http.Redirect(w, r, "/login", http.StatusFound)
		return false
	}
	if err != nil {
		s.log.Error("session update", zap.Error(err), zap.String("path", r.URL.Path))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return false
	}
	return true
}

// pathFor is the page that belongs to a workflow state.
func pathFor(state workflow.State) string {
	switch state {
	case workflow.AwaitingData:
		return "/data"
	case workflow.AwaitingJobInfo:
		return "/job"
	case workflow.ReportsReady:
		return "/reports"
	default:
		return "/login"
	}
}
