package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/stockwise/stockwise/internal/models"
)

// Recovery turns a handler panic into a logged stack and a JSON 500. Aborted
// responses (http.ErrAbortHandler) are re-panicked for net/http to handle.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			evt := log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", RequestIDFromContext(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path)
			if u, ok := UserFromContext(r.Context()); ok {
				evt = evt.Int64("user_id", u.ID)
			}
			evt.Msg("panic recovered")

			models.WriteErrorBody(w, models.ErrorResponse{
				Message: "internal server error",
				Code:    http.StatusInternalServerError,
				Kind:    "internal",
			})
		}()
		next.ServeHTTP(w, r)
	})
}
