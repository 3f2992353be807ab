package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type fakeRateLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeRateLimiter() *fakeRateLimiter {
	return &fakeRateLimiter{counts: map[string]int64{}}
}

func (f *fakeRateLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitBlocksAfterLimitPerUser(t *testing.T) {
	limiter := newFakeRateLimiter()
	handler := RateLimit(NewRateLimitPolicy("checkout", time.Minute, 2), limiter, nil)(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
		req = req.WithContext(WithUserID(req.Context(), "user-a"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i < 2 {
			if rec.Code != http.StatusOK {
				t.Fatalf("attempt %d: expected 200, got %d", i, rec.Code)
			}
			continue
		}
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
		if rec.Header().Get("Retry-After") != "60" {
			t.Fatalf("expected Retry-After 60, got %q", rec.Header().Get("Retry-After"))
		}
		var payload struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
			t.Fatalf("unexpected code: %s", payload.Error.Code)
		}
	}

	other := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	other = other.WithContext(WithUserID(other.Context(), "user-b"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected a separate budget per user, got %d", rec.Code)
	}
}

func TestRateLimitFallsBackToClientIP(t *testing.T) {
	limiter := newFakeRateLimiter()
	handler := RateLimit(NewRateLimitPolicy("checkout", time.Minute, 1), limiter, nil)(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
		req.RemoteAddr = "5.6.7.8:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if i == 1 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
	}
	if _, ok := limiter.counts["checkout:ip:5.6.7.8"]; !ok {
		t.Fatalf("expected ip scoped counter, got %v", limiter.counts)
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	limiter := newFakeRateLimiter()
	handler := RateLimit(NewRateLimitPolicy("checkout", 0, 0), limiter, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(limiter.counts) != 0 {
		t.Fatalf("limiter should not be consulted")
	}
}

func TestRateLimitStoreFailureIsDependencyError(t *testing.T) {
	limiter := newFakeRateLimiter()
	limiter.err = errors.New("redis down")
	handler := RateLimit(NewRateLimitPolicy("checkout", time.Minute, 5), limiter, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	req = req.WithContext(WithUserID(req.Context(), "user-a"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
