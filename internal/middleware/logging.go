package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

type logSlotKey struct{}

// logSlot lets middleware further down the chain annotate the request log line
type logSlot struct {
	userID int64
}

func annotateUser(ctx context.Context, id int64) {
	if slot, ok := ctx.Value(logSlotKey{}).(*logSlot); ok {
		slot.userID = id
	}
}

// Logging writes one line per request. 5xx responses log at error level, 4xx at warn.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		slot := &logSlot{}

		next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), logSlotKey{}, slot)))

		var evt *zerolog.Event
		switch {
		case rw.status >= 500:
			evt = log.Error()
		case rw.status >= 400:
			evt = log.Warn()
		default:
			evt = log.Info()
		}
		evt.
			Str("request_id", RequestIDFromContext(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.status).
			Int("size", rw.size).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent())
		if slot.userID != 0 {
			evt = evt.Int64("user_id", slot.userID)
		}
		evt.Msg("request")
	})
}
