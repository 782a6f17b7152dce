package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Recover turns a handler panic into the 500 error envelope. Register it
// after Logging and Metrics so both record the 500.
func Recover(log *logrus.Entry) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				log.WithFields(logrus.Fields{
					"trace_id": TraceID(r.Context()),
					"method":   r.Method,
					"path":     r.URL.Path,
					"panic":    fmt.Sprint(rec),
					"stack":    string(debug.Stack()),
				}).Error("handler panicked")

				if wrapped.written {
					return
				}
				w.Header().Set("Content-Type", "application/json")
				wrapped.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"})
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}
