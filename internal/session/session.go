// Package session owns the process-wide user session and the gate every
// mutating operation passes through before touching the network.
package session

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/basecamp/internal/api"
)

// ErrNotAuthenticated is returned when a mutation is attempted without a
// logged-in user. No network call is made in that case.
var ErrNotAuthenticated = errors.New("not authenticated")

// Session describes the logged-in user. The zero value is an anonymous session.
type Session struct {
	UserID          api.ID
	Role            string
	IsAuthenticated bool
	ExpiresAt       time.Time

	token string
}

// Expired reports whether the session carried an expiry that has passed.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// RequireAuth returns ErrNotAuthenticated unless s belongs to a logged-in,
// unexpired user.
func RequireAuth(s Session) error {
	return requireAuthAt(s, time.Now())
}

func requireAuthAt(s Session, now time.Time) error {
	if !s.IsAuthenticated || s.UserID.IsZero() || s.Expired(now) {
		return ErrNotAuthenticated
	}
	return nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID    api.ID `json:"id"`
	UserIDAlt api.ID `json:"userId"`
	Role      string `json:"role"`
}

// Decode reads the user id, role and expiry out of a backend-issued bearer
// token. The signature is not checked here; the backend verifies it on every
// request.
func Decode(token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, fmt.Errorf("token is empty")
	}
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Session{}, fmt.Errorf("parse token: %w", err)
	}

	userID := claims.UserID
	if userID.IsZero() {
		userID = claims.UserIDAlt
	}
	if userID.IsZero() {
		userID = api.ID(strings.TrimSpace(claims.Subject))
	}
	if userID.IsZero() {
		return Session{}, fmt.Errorf("token has no user id")
	}

	s := Session{
		UserID:          userID,
		Role:            strings.ToLower(strings.TrimSpace(claims.Role)),
		IsAuthenticated: true,
		token:           token,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Holder is the process-wide session context. It is safe for concurrent use
// and ready to use as a zero value (anonymous).
type Holder struct {
	mu      sync.RWMutex
	current Session
}

// Login replaces the current session with the one encoded in token.
func (h *Holder) Login(token string) (Session, error) {
	s, err := Decode(token)
	if err != nil {
		return Session{}, err
	}
	if s.Expired(time.Now()) {
		return Session{}, fmt.Errorf("token expired at %s", s.ExpiresAt.Format(time.RFC3339))
	}
	h.mu.Lock()
	h.current = s
	h.mu.Unlock()
	return s, nil
}

// Logout clears the current session.
func (h *Holder) Logout() {
	h.mu.Lock()
	h.current = Session{}
	h.mu.Unlock()
}

// Current returns a copy of the current session.
func (h *Holder) Current() Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Require returns the current session, or ErrNotAuthenticated.
func (h *Holder) Require() (Session, error) {
	s := h.Current()
	if err := RequireAuth(s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Token returns the bearer token of the current session, or "" when anonymous.
func (h *Holder) Token() string {
	s := h.Current()
	if !s.IsAuthenticated {
		return ""
	}
	return s.token
}

// ReadTokenFile returns the trimmed contents of path. A missing file is not an
// error; it yields an empty token.
func ReadTokenFile(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
