package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// Defaults returns the base stack: request id, real ip, panic recovery and a request timeout.
// A non-positive timeout omits the timeout middleware.
func Defaults(timeout time.Duration) []Middleware {
	stack := []Middleware{middleware.RequestID, middleware.RealIP, middleware.Recoverer}
	if timeout > 0 {
		stack = append(stack, middleware.Timeout(timeout))
	}
	return stack
}

// RequestLogger logs one line per request after it completes.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}

				fields := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				}

				switch {
				case status >= 500:
					logger.Error("request", fields...)
				case status >= 400:
					logger.Warn("request", fields...)
				default:
					logger.Info("request", fields...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// RateLimit limits each client IP to requests per window. A non-positive limit disables it.
func RateLimit(requests int, window time.Duration) Middleware {
	if requests <= 0 {
		return nil
	}
	return httprate.LimitByIP(requests, window)
}

// CORS allows cross-origin requests from origins. No origins disables it.
func CORS(origins []string) Middleware {
	if len(origins) == 0 {
		return nil
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return c.Handler
}
