package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// serveProtected runs one request through RequireAuth and records whether
// the inner handler ran and which identity it saw.
func serveProtected(t *testing.T, ts *TokenService, authHeader string) (*httptest.ResponseRecorder, bool, string) {
	t.Helper()

	var (
		called bool
		seen   string
	)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if id, ok := IdentityFromContext(r.Context()); ok {
			seen = id.Username
		}
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/audits", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	RequireAuth(ts)(inner).ServeHTTP(rec, req)
	return rec, called, seen
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body %q: %v", rec.Body.String(), err)
	}
	return body["error"]
}

func TestRequireAuth_ValidToken(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate(alice)

	rec, called, seen := serveProtected(t, ts, "Bearer "+token)

	if !called {
		t.Fatal("inner handler was not called for a valid token")
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if seen != "alice" {
		t.Errorf("identity in context = %q, want alice", seen)
	}
}

func TestRequireAuth_LowercaseScheme(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate(alice)

	_, called, _ := serveProtected(t, ts, "bearer "+token)
	if !called {
		t.Error("scheme should be matched case-insensitively")
	}
}

func TestRequireAuth_Failures(t *testing.T) {
	ts := newTestTokenService(t)
	expired, _ := ts.GenerateWithDuration(alice, -time.Minute)
	valid, _ := ts.Generate(alice)

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"no header", "", "unauthorized"},
		{"basic scheme", "Basic YWxpY2U6cHcxMjM=", "unauthorized"},
		{"bare token without scheme", valid, "unauthorized"},
		{"empty bearer", "Bearer ", "unauthorized"},
		{"garbage token", "Bearer not-a-jwt", "invalid_token"},
		{"expired token", "Bearer " + expired, "invalid_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, called, _ := serveProtected(t, ts, tt.header)

			if called {
				t.Error("inner handler should not run")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if got := errorCode(t, rec); got != tt.wantCode {
				t.Errorf("error code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestIdentityFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := IdentityFromContext(req.Context()); ok {
		t.Error("IdentityFromContext() should report false on a bare context")
	}
}
