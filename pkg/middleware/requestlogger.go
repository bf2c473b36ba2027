package middleware

import (
	"log/slog"
	"net/http"

	"github.com/Sahilbhanushali/GharGrocerProd/pkg/logger"
)

// UserResolver returns the ID of the signed-in customer for r, or "".
type UserResolver func(r *http.Request) string

// RequestLogger builds a request-scoped logger enriched with correlation_id,
// user_id, trace_id and span_id, and stores it via logger.NewContext.
// Mount it after RequestLogging and Tracing.
func RequestLogger(base *slog.Logger, resolveUser UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if resolveUser != nil {
				if userID := resolveUser(r); userID != "" {
					ctx = logger.WithUserID(ctx, userID)
				}
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
