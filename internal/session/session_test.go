package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/basecamp/internal/api"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return token
}

func TestDecode_ReadsClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tests := []struct {
		name   string
		claims jwt.MapClaims
		wantID api.ID
	}{
		{"numeric id claim", jwt.MapClaims{"id": 7, "role": "Tourist", "exp": exp.Unix()}, "7"},
		{"userId claim", jwt.MapClaims{"userId": "u-9", "role": "guide", "exp": exp.Unix()}, "u-9"},
		{"subject fallback", jwt.MapClaims{"sub": "12", "role": "admin", "exp": exp.Unix()}, "12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Decode(signToken(t, tt.claims))
			if err != nil {
				t.Fatalf("Decode returned error: %v", err)
			}
			if s.UserID != tt.wantID {
				t.Fatalf("UserID = %q, want %q", s.UserID, tt.wantID)
			}
			if !s.IsAuthenticated {
				t.Fatalf("IsAuthenticated = false, want true")
			}
			if !s.ExpiresAt.Equal(exp) {
				t.Fatalf("ExpiresAt = %v, want %v", s.ExpiresAt, exp)
			}
			if s.Role == "" || s.Role != strings.ToLower(s.Role) {
				t.Fatalf("Role = %q, want lower-case role", s.Role)
			}
		})
	}
}

func TestDecode_Rejects(t *testing.T) {
	if _, err := Decode("   "); err == nil {
		t.Fatalf("Decode(blank) returned nil error")
	}
	if _, err := Decode("not.a.jwt"); err == nil {
		t.Fatalf("Decode(garbage) returned nil error")
	}
	if _, err := Decode(signToken(t, jwt.MapClaims{"role": "tourist"})); err == nil {
		t.Fatalf("Decode without user id returned nil error")
	}
}

func TestRequireAuth(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		session Session
		wantErr bool
	}{
		{"anonymous", Session{}, true},
		{"flag without id", Session{IsAuthenticated: true}, true},
		{"expired", Session{UserID: "7", IsAuthenticated: true, ExpiresAt: now.Add(-time.Second)}, true},
		{"no expiry", Session{UserID: "7", IsAuthenticated: true}, false},
		{"valid", Session{UserID: "7", IsAuthenticated: true, ExpiresAt: now.Add(time.Minute)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := requireAuthAt(tt.session, now)
			if tt.wantErr && !errors.Is(err, ErrNotAuthenticated) {
				t.Fatalf("requireAuthAt = %v, want ErrNotAuthenticated", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("requireAuthAt = %v, want nil", err)
			}
		})
	}
}

func TestHolder_LoginLogout(t *testing.T) {
	var h Holder
	if _, err := h.Require(); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("zero Holder Require = %v, want ErrNotAuthenticated", err)
	}
	if h.Token() != "" {
		t.Fatalf("zero Holder Token = %q, want empty", h.Token())
	}

	token := signToken(t, jwt.MapClaims{"id": 7, "role": "tourist", "exp": time.Now().Add(time.Hour).Unix()})
	if _, err := h.Login(token); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	s, err := h.Require()
	if err != nil {
		t.Fatalf("Require after login returned error: %v", err)
	}
	if s.UserID != "7" {
		t.Fatalf("UserID = %q, want 7", s.UserID)
	}
	if h.Token() != token {
		t.Fatalf("Token did not round trip")
	}

	h.Logout()
	if _, err := h.Require(); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("Require after logout = %v, want ErrNotAuthenticated", err)
	}
	if h.Token() != "" {
		t.Fatalf("Token after logout = %q, want empty", h.Token())
	}
}

func TestHolder_LoginRejectsExpiredToken(t *testing.T) {
	var h Holder
	token := signToken(t, jwt.MapClaims{"id": 7, "exp": time.Now().Add(-time.Hour).Unix()})
	if _, err := h.Login(token); err == nil {
		t.Fatalf("Login with expired token returned nil error")
	}
	if h.Current().IsAuthenticated {
		t.Fatalf("expired login left an authenticated session")
	}
}

func TestReadTokenFile(t *testing.T) {
	dir := t.TempDir()
	missing, err := ReadTokenFile(filepath.Join(dir, "missing"))
	if err != nil || missing != "" {
		t.Fatalf("ReadTokenFile(missing) = %q, %v; want empty, nil", missing, err)
	}
	path := filepath.Join(dir, "token")
	if err := os.WriteFile(path, []byte("  abc.def.ghi \n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadTokenFile(path)
	if err != nil {
		t.Fatalf("ReadTokenFile returned error: %v", err)
	}
	if got != "abc.def.ghi" {
		t.Fatalf("ReadTokenFile = %q, want abc.def.ghi", got)
	}
}
