package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// Auth requires a Bearer HS256 token signed with the shared producer secret.
// Token issuance stays with the call platform; this service only verifies.
// The optional "sid" claim and the subject are exposed on the context.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := extractBearer(r); tok != "" {
				ctx, ok := authenticateJWT(r.Context(), tok, secret)
				if ok {
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`, http.StatusUnauthorized)
		})
	}
}

func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return auth[7:]
	}
	return ""
}

func authenticateJWT(ctx context.Context, tokenStr, secret string) (context.Context, bool) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return ctx, false
	}

	if claims.SessionID != "" {
		ctx = context.WithValue(ctx, ContextKeySessionID, claims.SessionID)
	}
	if claims.Subject != "" {
		ctx = context.WithValue(ctx, ContextKeyIdentity, claims.Subject)
	}
	return ctx, true
}
