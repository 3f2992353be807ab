package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func newBufferLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.New(logger.Options{ServiceName: "api-test", Output: buf})
}

func TestLoggingIncludesActorAndRoute(t *testing.T) {
	var buf bytes.Buffer
	logg := newBufferLogger(&buf)
	userID := uuid.New()
	token := mintTestToken(t, testJWT, userID, enums.UserRoleAdmin)

	r := chi.NewRouter()
	r.Use(Logging(logg))
	r.With(Auth(testJWT, nil)).Post("/api/v1/orders/{orderID}/cancel", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/abc/cancel", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	line := buf.String()
	for _, want := range []string{
		`"user_id":"` + userID.String() + `"`,
		`"actor_role":"admin"`,
		`"route":"/api/v1/orders/{orderID}/cancel"`,
		`"status":201`,
		`"bytes":7`,
		`"level":"info"`,
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in log line %s", want, line)
		}
	}
}

func TestLoggingAnonymousServerErrorIsWarn(t *testing.T) {
	var buf bytes.Buffer
	handler := Logging(newBufferLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	line := buf.String()
	if !strings.Contains(line, `"level":"warn"`) {
		t.Fatalf("expected warn level, got %s", line)
	}
	if strings.Contains(line, "user_id") {
		t.Fatalf("anonymous request must not carry user_id: %s", line)
	}
}

func TestRecovererWritesInternalError(t *testing.T) {
	var buf bytes.Buffer
	handler := Recoverer(newBufferLogger(&buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	if !strings.Contains(buf.String(), "panic.recovered") || !strings.Contains(buf.String(), "stack") {
		t.Fatalf("expected panic log with stack, got %s", buf.String())
	}
}

func TestRecovererRepanicsAbortHandler(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRequestIDPropagatesOrReplaces(t *testing.T) {
	handler := RequestID(nil)(okHandler())
	cases := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "caller id", incoming: "req-123", keep: true},
		{name: "missing", incoming: "", keep: false},
		{name: "whitespace", incoming: "req 123", keep: false},
		{name: "too long", incoming: strings.Repeat("a", maxRequestIDLength+1), keep: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.incoming != "" {
				req.Header.Set(requestIDHeader, tc.incoming)
			}
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)

			got := resp.Header().Get(requestIDHeader)
			if tc.keep && got != tc.incoming {
				t.Fatalf("expected %q got %q", tc.incoming, got)
			}
			if !tc.keep {
				if _, err := uuid.Parse(got); err != nil {
					t.Fatalf("expected generated uuid, got %q", got)
				}
			}
		})
	}
}
