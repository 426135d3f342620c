package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/basecamp/internal/config"
)

func testToken(t *testing.T) string {
	t.Helper()
	claims := jwt.MapClaims{"id": 7, "role": "tourist", "exp": time.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestWire_RestoresSession(t *testing.T) {
	cfg := config.Config{APIURL: "http://127.0.0.1:1/api", CacheTTL: time.Second}
	svc, err := Wire(cfg, testToken(t))
	if err != nil {
		t.Fatalf("Wire: %v", err)
	}
	sess := svc.Sessions.Current()
	if !sess.IsAuthenticated || sess.UserID != "7" {
		t.Fatalf("session = %+v, want user 7", sess)
	}
	if svc.Feed == nil || svc.Interactions == nil || svc.Threads == nil || svc.Store == nil {
		t.Fatalf("services not fully wired: %+v", svc)
	}
}

func TestWire_BadTokenStartsAnonymous(t *testing.T) {
	cfg := config.Config{APIURL: "http://127.0.0.1:1/api"}
	svc, err := Wire(cfg, "not-a-jwt")
	if err != nil {
		t.Fatalf("Wire: %v", err)
	}
	if svc.Sessions.Current().IsAuthenticated {
		t.Fatalf("bad token produced an authenticated session")
	}
}

func TestWire_BadURL(t *testing.T) {
	if _, err := Wire(config.Config{APIURL: "://nope"}, ""); err == nil {
		t.Fatalf("Wire accepted an invalid api_url")
	}
}

func TestResolveToken_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "token")
	if err := os.WriteFile(file, []byte("from-file\n"), 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}

	tests := []struct {
		name string
		flag string
		cfg  config.Config
		want string
	}{
		{"flag wins", "from-flag", config.Config{Token: "from-env", TokenFile: file}, "from-flag"},
		{"env before file", "", config.Config{Token: "from-env", TokenFile: file}, "from-env"},
		{"file", "", config.Config{TokenFile: file}, "from-file"},
		{"missing file", "", config.Config{TokenFile: filepath.Join(dir, "none")}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveToken(tt.flag, tt.cfg)
			if err != nil {
				t.Fatalf("resolveToken: %v", err)
			}
			if got != tt.want {
				t.Fatalf("token = %q, want %q", got, tt.want)
			}
		})
	}
}
