package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/aryan0dhankhar/homerental/internal/requestid"
)

type panicResponse struct {
	Error string  `json:"error"`
	Stack *string `json:"stack"`
}

// Recovery is the catch-all error handler. Panics are logged and answered
// with a 500; the stack trace is only exposed outside production.
func Recovery(log *slog.Logger, production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				stack := string(debug.Stack())
				log.Error("panic recovered",
					slog.String("request_id", requestid.From(r.Context())),
					slog.String("path", r.URL.Path),
					slog.String("panic", fmt.Sprint(rec)),
					slog.String("stack", stack),
				)

				resp := panicResponse{Error: fmt.Sprint(rec)}
				if production {
					resp.Error = "internal server error"
				} else {
					resp.Stack = &stack
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(resp)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
