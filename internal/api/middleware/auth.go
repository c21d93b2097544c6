package middleware

import (
	"context"
	"fintrack/internal/common"
	"fintrack/internal/common/security"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	ClaimsCtxKey    contextKey = "claims"
	RequestIDCtxKey contextKey = "requestID"
)

// Authenticator rejects requests without a valid bearer token and stores
// the verified claims in the context.
func Authenticator(tokens *security.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := tokens.Verify(jwtauth.TokenFromHeader(r))
			if err != nil {
				common.RespondWithError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsCtxKey, *claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Helper to get the verified caller from context
func GetClaimsFromContext(ctx context.Context) (security.Claims, bool) {
	claims, ok := ctx.Value(ClaimsCtxKey).(security.Claims)
	return claims, ok
}

// Helper to get user ID from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	claims, ok := GetClaimsFromContext(ctx)
	return claims.UserID, ok && claims.UserID != ""
}
