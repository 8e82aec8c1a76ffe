package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"tesig/console/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "console_http_requests_total",
		Help: "Console requests by route pattern, method and status.",
	}, []string{"route", "method", "status"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_http_request_duration_seconds",
		Help:    "Console request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func LoggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			writer := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(writer, r)
			duration := time.Since(start)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(writer.status)).Inc()
			requestDuration.WithLabelValues(route).Observe(duration.Seconds())

			fields := []zap.Field{
				zap.Int("status", writer.status),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.String("ip", clientIP(r, false)),
				zap.Duration("latency", duration),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}
			if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
				fields = append(fields, zap.String("forwarded_for", forwarded))
			}
			if s, ok := session.FromContext(r.Context()); ok {
				fields = append(fields, zap.Int64("user_id", s.User.ID))
			}
			switch {
			case writer.status >= http.StatusInternalServerError:
				logger.Error("request", fields...)
			case writer.status >= http.StatusBadRequest:
				logger.Warn("request", fields...)
			default:
				logger.Info("request", fields...)
			}
		})
	}
}
