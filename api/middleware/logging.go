package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// requestActor is filled in by Auth so the access log can name the caller
// even though Auth runs further down the chain.
type requestActor struct {
	userID string
	role   string
}

func noteActor(ctx context.Context, userID, role string) {
	if actor, ok := ctx.Value(ctxRequestActor).(*requestActor); ok {
		actor.userID = userID
		actor.role = role
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Logging writes one access line per request. 5xx responses are logged at
// warn level; handlers log the underlying error themselves.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logg == nil {
				next.ServeHTTP(w, r)
				return
			}

			actor := &requestActor{}
			ctx := context.WithValue(r.Context(), ctxRequestActor, actor)
			ctx = logg.WithFields(ctx, map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			fields := map[string]any{
				"status":      rec.status,
				"bytes":       rec.bytes,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					fields["route"] = pattern
				}
			}
			if actor.userID != "" {
				fields["user_id"] = actor.userID
				fields["actor_role"] = actor.role
			}
			ctx = logg.WithFields(ctx, fields)

			if rec.status >= http.StatusInternalServerError {
				logg.Warn(ctx, "request.complete")
				return
			}
			logg.Info(ctx, "request.complete")
		})
	}
}
