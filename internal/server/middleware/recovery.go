package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/iudanet/finsync/internal/server/handlers"
	"github.com/iudanet/finsync/pkg/api"
)

// RecoveryMiddleware создает middleware для восстановления после паники.
// Логирует стек вызовов и отвечает 500 INTERNAL без деталей.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}

					logger.Error("Panic recovered",
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"remote_addr", r.RemoteAddr,
						"stack", string(debug.Stack()),
					)

					handlers.WriteError(w, http.StatusInternalServerError, api.StatusInternal, "internal error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
