package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"go-market/internal/apperr"
	"go-market/internal/identity"
	"go-market/internal/render"
)

// TokenValidator decouples the middleware from how tokens are verified.
type TokenValidator interface {
	ValidateToken(tokenString string) (identity.Identity, error)
}

type AuthMiddleware struct {
	validator TokenValidator
	log       *zap.Logger
}

func NewAuthMiddleware(v TokenValidator, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{validator: v, log: log}
}

func (am *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r.Header.Get("Authorization"))

		// Fallback for clients that cannot set headers.
		if tokenString == "" {
			tokenString = r.URL.Query().Get("token")
		}

		if tokenString == "" {
			render.Error(w, am.log, apperr.ErrUnauthenticated)
			return
		}

		id, err := am.validator.ValidateToken(tokenString)
		if err != nil {
			am.log.Debug("token rejected", zap.Error(err))
			render.Error(w, am.log, apperr.ErrUnauthenticated)
			return
		}

		next.ServeHTTP(w, r.WithContext(identity.WithContext(r.Context(), id)))
	})
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
