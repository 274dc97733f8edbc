package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/groomly/groomly-api/internal/pkg/errorhandler"
	"github.com/groomly/groomly-api/internal/pkg/logger"
)

// Recover turns a handler panic into a 500. The route pattern and the caller's
// shop are logged so a crash can be traced back to the booking flow it hit.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			event := log.Warn().
				Str("request_id", logger.RequestID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path)
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				event = event.Str("route", rctx.RoutePattern())
			}
			if a, ok := GetActor(r.Context()); ok {
				event = event.Str("user_id", a.UserID.String()).Str("shop_id", a.ShopID.String())
			}
			event.Msg("Recovered from handler panic")

			errorhandler.HandlePanicError(r.Context(), w, rec, string(debug.Stack()))
		}()

		next.ServeHTTP(w, r)
	})
}
