package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// isProbePath marks high-frequency poll endpoints that skip the access log
func isProbePath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics" ||
		strings.HasSuffix(path, "/analysis/status")
}

// LoggingMiddleware logs HTTP requests with a per-request id. The id is
// echoed in X-Request-Id so uploads and analyses can be correlated.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()[:8]
		}
		w.Header().Set("X-Request-Id", reqID)

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		if isProbePath(r.URL.Path) && wrapped.statusCode < 400 {
			return
		}

		log.Printf(
			"request_id=%s method=%s path=%s status=%d duration=%s bytes=%d ip=%s caller=%s",
			reqID,
			r.Method,
			r.URL.Path,
			wrapped.statusCode,
			time.Since(start),
			wrapped.written,
			r.RemoteAddr,
			GetCallerFromContext(r.Context()),
		)
	})
}
