package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mmcdole/cinetrack/internal/domain"
)

func TestSignIn(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"ok", http.StatusOK, `{"token":"t","userId":"u","username":"me"}`, nil},
		{"bad password", http.StatusUnauthorized, `{"code":"invalid-credential"}`, domain.ErrAuthFailed},
		{"disabled", http.StatusForbidden, `{"code":"operation-not-allowed","message":"sign-up disabled"}`, domain.ErrSignInDisabled},
		{"other forbidden", http.StatusForbidden, `{"code":"user-disabled"}`, domain.ErrAuthFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/auth/login" || r.Method != http.MethodPost {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				body, _ := io.ReadAll(r.Body)
				if !strings.Contains(string(body), `"username":"me"`) {
					t.Errorf("body = %s", body)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(server.Close)

			res, err := NewRemoteAuth(server.URL, nil).SignIn(context.Background(), "me", "pw")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SignIn = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SignIn: %v", err)
			}
			if res.Token != "t" || res.UserID != "u" || res.Username != "me" {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestSignInOffline(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	if _, err := NewRemoteAuth(url, nil).SignIn(context.Background(), "me", "pw"); !errors.Is(err, domain.ErrServerOffline) {
		t.Errorf("SignIn = %v, want ErrServerOffline", err)
	}
}

func TestSignOut(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	if err := NewRemoteAuth(server.URL, nil).SignOut(context.Background(), "tok"); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}
