package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"osintgraph/infrastructure/config"
	"osintgraph/pkg/auth"
)

// Authenticate builds a bearer-JWT verification middleware from the
// process config, without any API-Gateway/Lambda pre-auth branches — the
// identity provider issuing tokens is an external collaborator, and this
// verifier is the runnable stand-in for it.
func Authenticate(cfg *config.Config, logger *zap.Logger) func(next http.Handler) http.Handler {
	jwtConfig := auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
	}
	validator, err := auth.NewJWTValidator(jwtConfig)
	if err != nil {
		logger.Error("failed to build JWT validator", zap.Error(err))
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				respondUnauthorized(w, "authentication system error")
			})
		}
	}

	ipLimiter := auth.NewIPRateLimiter(100)
	userLimiter := auth.NewUserRateLimiter(200)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)
			if allowed, _ := ipLimiter.Allow(r.Context(), clientIP); !allowed {
				respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			token := extractToken(r)
			if token == "" {
				respondUnauthorized(w, "missing authentication token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				switch err {
				case auth.ErrExpiredToken:
					respondUnauthorized(w, "token has expired")
				case auth.ErrInvalidSignature:
					respondUnauthorized(w, "invalid token signature")
				default:
					respondUnauthorized(w, "invalid token")
				}
				return
			}

			if allowed, _ := userLimiter.Allow(r.Context(), claims.UserID); !allowed {
				respondWithError(w, http.StatusTooManyRequests, "user rate limit exceeded")
				return
			}

			userCtx := &auth.UserContext{UserID: claims.UserID, Email: claims.Email, Roles: claims.Roles}
			ctx := auth.SetUserInContext(r.Context(), userCtx)
			ctx = context.WithValue(ctx, userIDContextKey{}, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type userIDContextKey struct{}

// extractToken pulls the bearer token from the Authorization header, a
// cookie, or (last resort) a query parameter.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return authHeader
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	respondWithError(w, http.StatusUnauthorized, message)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    code,
	})
}

// RequireRole restricts a route to callers carrying one of the given roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				respondUnauthorized(w, "unauthorized")
				return
			}
			for _, required := range roles {
				for _, have := range user.Roles {
					if have == required {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			respondWithError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}
