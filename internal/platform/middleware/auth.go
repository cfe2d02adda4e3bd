package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "mandat/pkg/domain"
	dErrors "mandat/pkg/domain-errors"
	"mandat/pkg/requestcontext"
)

// JWTClaims carries the identity extracted from a validated token.
type JWTClaims struct {
	UserID string
	Role   string
}

// JWTValidator validates bearer tokens. Implemented by internal/jwtauth.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// RequireAuth rejects requests without a valid bearer token and places the
// authenticated user ID in the request context. Authorization policy beyond
// authentication is the surrounding application's concern.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				if logger != nil {
					logger.WarnContext(ctx, "token validation failed",
						"request_id", requestcontext.RequestID(ctx),
						"error", err.Error(),
					)
				}
				WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
				return
			}

			userID, err := id.ParseUserID(claims.UserID)
			if err != nil {
				WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithUserID(ctx, userID)))
		})
	}
}
