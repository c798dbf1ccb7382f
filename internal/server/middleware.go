package server

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/joseph-ayodele/docextract/internal/common"
)

// requestLogger carries chi's request id into the context and logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		rid := chimiddleware.GetReqID(ctx)
		if rid != "" {
			ctx = common.WithRequestID(ctx, rid)
		}
		ctx, rid = common.EnsureRequestID(ctx)
		logger := s.logger.With("req_id", rid)
		ctx = common.WithLogger(ctx, logger)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}
