package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/doneduardo/storefront/pkg/logger"
	"github.com/doneduardo/storefront/pkg/metrics"
)

// accessWriter remembers the first status and counts body bytes.
type accessWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (a *accessWriter) WriteHeader(code int) {
	if a.status == 0 {
		a.status = code
	}
	a.ResponseWriter.WriteHeader(code)
}

func (a *accessWriter) Write(b []byte) (int, error) {
	if a.status == 0 {
		a.status = http.StatusOK
	}
	n, err := a.ResponseWriter.Write(b)
	a.bytes += n
	return n, err
}

func (a *accessWriter) code() int {
	if a.status == 0 {
		return http.StatusOK
	}
	return a.status
}

// Logging writes one access entry per request and observes latency by route
// pattern when m is non-nil. Health probes log at debug, 5xx at warn.
func Logging(logg *logger.Logger, m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			aw := &accessWriter{ResponseWriter: w}
			next.ServeHTTP(aw, r.WithContext(ctx))

			elapsed := time.Since(start)
			route := routePattern(r)
			m.ObserveRequest(r.Method, route, aw.code(), elapsed)

			level := accessLevel(r.URL.Path, aw.code())
			if !logg.Enabled(ctx, level) {
				return
			}
			ctx = logg.WithFields(ctx, map[string]any{
				"route":       route,
				"status":      aw.code(),
				"bytes":       aw.bytes,
				"duration_ms": elapsed.Milliseconds(),
			})
			switch level {
			case zerolog.WarnLevel:
				logg.Warn(ctx, "request.complete")
			case zerolog.DebugLevel:
				logg.Debug(ctx, "request.complete")
			default:
				logg.Info(ctx, "request.complete")
			}
		})
	}
}

func accessLevel(path string, status int) zerolog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zerolog.WarnLevel
	case strings.HasPrefix(path, "/health"):
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// routePattern is read after routing so chi has filled in the matched pattern.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}
