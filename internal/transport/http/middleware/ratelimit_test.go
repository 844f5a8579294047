package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mindwell/internal/domain/auth"
)

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	handler := RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRateLimitKeysByUser(t *testing.T) {
	handler := RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		ctx := context.WithValue(req.Context(), ctxKeyUser, auth.UserContext{UserID: userID})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		return rec.Code
	}

	if code := send("u1"); code != http.StatusOK {
		t.Fatalf("u1 first: %d", code)
	}
	if code := send("u2"); code != http.StatusOK {
		t.Fatalf("u2 should have its own bucket, got %d", code)
	}
	if code := send("u1"); code != http.StatusTooManyRequests {
		t.Fatalf("u1 second: %d, want 429", code)
	}
}

func TestSensitiveScopeClassification(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   sensitiveScope
	}{
		{http.MethodPost, "/api/v1/auth/login", sensitiveScopeAuth},
		{http.MethodPost, "/api/v1/auth/register", sensitiveScopeAuth},
		{http.MethodPost, "/api/v1/account/delete", sensitiveScopeActor},
		{http.MethodPost, "/api/v1/account/deletion-flow/confirm", sensitiveScopeActor},
		{http.MethodPost, "/api/v1/consents/withdraw", sensitiveScopeActor},
		{http.MethodGet, "/api/v1/account/delete", sensitiveScopeNone},
		{http.MethodPost, "/api/v1/checkins", sensitiveScopeNone},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
		if got := sensitiveRateScope(req); got != tt.want {
			t.Errorf("%s %s: scope = %q, want %q", tt.method, tt.path, got, tt.want)
		}
	}
}
