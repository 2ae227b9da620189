package httpserver

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

type ctxKey int

const (
	tenantKey ctxKey = iota
	userKey
)

// Identity headers set by the fronting gateway after authentication.
const (
	headerTenantID = "X-Tenant-ID"
	headerUserID   = "X-User-ID"
)

// Logging returns a middleware for structured request logging. Only
// metadata is logged, never payloads.
func Logging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			log.Info("http",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Duration("dur", time.Since(start)),
				zap.String("peer", r.RemoteAddr),
			)
		})
	}
}

// Recover returns a middleware that recovers from handler panics.
func Recover(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic",
						zap.Any("reason", rec),
						zap.ByteString("stack", debug.Stack()),
						zap.String("path", r.URL.Path),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequireIdentity extracts the tenant and user identifiers from the gateway
// headers and rejects requests without a valid pair.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := uuid.FromString(r.Header.Get(headerTenantID))
		if err != nil {
			http.Error(w, "missing or invalid "+headerTenantID, http.StatusUnauthorized)
			return
		}
		userID, err := uuid.FromString(r.Header.Get(headerUserID))
		if err != nil {
			http.Error(w, "missing or invalid "+headerUserID, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), tenantKey, tenantID)
		ctx = context.WithValue(ctx, userKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(ctx context.Context) (tenantID, userID uuid.UUID) {
	tenantID, _ = ctx.Value(tenantKey).(uuid.UUID)
	userID, _ = ctx.Value(userKey).(uuid.UUID)
	return tenantID, userID
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
