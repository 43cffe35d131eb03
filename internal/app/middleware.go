package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	pkgApp "github.com/mateusmacedo/go-flights/pkg/application"
)

func requestLogger(logger pkgApp.AppLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			pkgApp.LogDebug(r.Context(), logger, "request served", map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start).String(),
			})
		})
	}
}
