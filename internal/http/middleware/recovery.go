package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/coderr/marketplace-api/internal/domain"
	"go.uber.org/zap"
)

// Recovery turns a panic into a logged 500 with the uniform error body
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", RequestIDFromContext(r.Context())),
					zap.ByteString("stack", debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "Internal Server Error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes a domain.APIError body
func writeError(w http.ResponseWriter, status int, detail string) {
	errorType := domain.ErrorTypeInternal
	if status == http.StatusTooManyRequests {
		errorType = "rate_limited"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   errorType,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
