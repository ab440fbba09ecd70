package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/vaughan-dsouza/goblog/internal/metrics"
	"github.com/vaughan-dsouza/goblog/internal/utils"
)

type logInfoKey struct{}

// logInfo is filled in by inner middleware for the request log line.
type logInfo struct {
	userID int64
}

func setLogUser(ctx context.Context, userID int64) {
	if info, ok := ctx.Value(logInfoKey{}).(*logInfo); ok {
		info.userID = userID
	}
}

// RequestLogger writes one log line per request. Mount it after chi's RequestID.
func RequestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			info := &logInfo{}
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), logInfoKey{}, info)))

			status := statusOf(ww)
			fields := logrus.Fields{
				"request_id": chimw.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     status,
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
			}
			if info.userID != 0 {
				fields["user_id"] = info.userID
			}

			entry := log.WithFields(fields)
			switch {
			case status >= 500:
				entry.Error("request")
			case status >= 400:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
		})
	}
}

// Metrics records request counts and latency labelled by chi route pattern,
// so /posts/1 and /posts/2 share one series.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.IncInFlight()
			defer m.DecInFlight()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.ObserveRequest(r.Method, route, statusOf(ww), time.Since(start))
		})
	}
}

// Logger returns log scoped to the request id and, when logged in, the user.
func Logger(log logrus.FieldLogger, r *http.Request) logrus.FieldLogger {
	entry := log.WithField("request_id", chimw.GetReqID(r.Context()))
	if u := utils.CurrentUser(r.Context()); u != nil {
		entry = entry.WithField("user_id", u.ID)
	}
	return entry
}

// statusOf treats a handler that never wrote a header as 200.
func statusOf(ww chimw.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}
