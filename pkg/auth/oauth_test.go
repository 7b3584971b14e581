package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestNormalizeRedirect(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost", "http://localhost:6789"},
		{"http://localhost:8080/cb", "http://localhost:6789/cb"},
		{"http://127.0.0.1/cb", "http://127.0.0.1:6789/cb"},
		{"urn:ietf:wg:oauth:2.0:oob", "http://localhost:6789/oauth2callback"},
		{"https://example.com/cb", "https://example.com/cb"},
	}
	for _, tt := range tests {
		if got := NormalizeRedirect(tt.in); got != tt.want {
			t.Errorf("NormalizeRedirect(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetConfigReadsCredentials(t *testing.T) {
	dir := t.TempDir()
	creds := `{"installed":{"client_id":"id","client_secret":"secret","redirect_uris":["http://localhost"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`
	if err := os.WriteFile(filepath.Join(dir, ClientSecretsFile), []byte(creds), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := GetConfig(dir, Scopes)
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if cfg.ClientID != "id" || cfg.RedirectURL != "http://localhost:6789" {
		t.Errorf("Unexpected config: %+v", cfg)
	}

	if _, err := GetConfig(t.TempDir(), Scopes); err == nil {
		t.Error("Expected error without credentials.json")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", TokenFile)
	in := &oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)}
	if err := saveToken(path, in); err != nil {
		t.Fatalf("saveToken failed: %v", err)
	}
	out, err := tokenFromFile(path)
	if err != nil {
		t.Fatalf("tokenFromFile failed: %v", err)
	}
	if out.AccessToken != "a" || out.RefreshToken != "r" || !out.Expiry.Equal(in.Expiry) {
		t.Errorf("Unexpected token: %+v", out)
	}
}

func TestCallbackHandler(t *testing.T) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	h := callbackHandler(codeCh, errCh)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth2callback?code=xyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if got := <-codeCh; got != "xyz" {
		t.Errorf("Expected code xyz, got %q", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth2callback", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	if err := <-errCh; err == nil {
		t.Error("Expected an error for a missing code")
	}
}
