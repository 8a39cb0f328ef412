package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fisch192/beefactory/internal/domain"
)

type contextKey string

const PrincipalKey contextKey = "principal"

// ParseToken decodes a bearer token into a Principal. Shared with the
// WebSocket handshake so both transports accept exactly the same tokens.
func ParseToken(tokenStr, secret string) (domain.Principal, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return domain.Principal{}, err
	}
	if !token.Valid {
		return domain.Principal{}, jwt.ErrTokenUnverifiable
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Principal{}, jwt.ErrTokenInvalidClaims
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return domain.Principal{}, err
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return domain.Principal{}, err
	}

	p := domain.Principal{ID: userID, Role: domain.RoleUser}
	if role, ok := claims["role"].(string); ok && role != "" {
		p.Role = domain.Role(role)
	}
	if name, ok := claims["display_name"].(string); ok && name != "" {
		p.DisplayName = name
	} else if email, ok := claims["email"].(string); ok {
		p.DisplayName = email
	}
	return p, nil
}

func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, `{"error":{"code":"UNAUTHORIZED","message":"Missing or invalid token"}}`, http.StatusUnauthorized)
				return
			}

			principal, err := ParseToken(strings.TrimPrefix(header, "Bearer "), jwtSecret)
			if err != nil {
				http.Error(w, `{"error":{"code":"UNAUTHORIZED","message":"Invalid or expired token"}}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal extracts the decoded principal from request context
func GetPrincipal(ctx context.Context) domain.Principal {
	return ctx.Value(PrincipalKey).(domain.Principal)
}
