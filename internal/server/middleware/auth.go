package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/finsync/internal/server/handlers"
	"github.com/iudanet/finsync/pkg/api"
)

// TokenValidator resolves a bearer token to the uid it was issued for
type TokenValidator interface {
	Validate(token string) (string, error)
}

// AuthMiddleware создает middleware для проверки JWT токена.
// uid из токена кладется в контекст запроса.
func AuthMiddleware(logger *slog.Logger, tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Missing Authorization header", "path", r.URL.Path)
				unauthenticated(w, "missing token")
				return
			}

			// Ожидаем формат: "Bearer <token>"
			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				logger.Warn("Invalid Authorization header format")
				unauthenticated(w, "invalid token format")
				return
			}

			uid, err := tokens.Validate(strings.TrimSpace(token))
			if err != nil {
				logger.Warn("Invalid access token", "error", err)
				unauthenticated(w, "invalid token")
				return
			}

			logger.Debug("User authenticated", "user_id", uid)
			next.ServeHTTP(w, r.WithContext(handlers.WithUserID(r.Context(), uid)))
		})
	}
}

func unauthenticated(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	handlers.WriteError(w, http.StatusUnauthorized, api.StatusUnauthenticated, msg)
}
