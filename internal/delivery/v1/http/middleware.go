package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/DRSN-tech/respondr-media/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	ownerIDKey contextKey = "ownerID"
	tokenKey   contextKey = "bearerToken"
)

// RequireAuth проверяет Bearer JWT (HMAC) и кладёт в контекст владельца (claim sub) и исходный токен.
// Токен затем пробрасывается в API инцидентов при регистрации вложения.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				WriteError(w, e.Wrap("authorization header required", e.ErrUnauthorized))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				WriteError(w, e.Wrap("invalid authorization header format", e.ErrUnauthorized))
				return
			}

			token, err := jwt.Parse(parts[1], func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				WriteError(w, e.Wrap("invalid or expired token", e.ErrUnauthorized))
				return
			}

			ownerID, err := token.Claims.GetSubject()
			if err != nil || strings.TrimSpace(ownerID) == "" {
				WriteError(w, e.Wrap("token has no subject", e.ErrUnauthorized))
				return
			}

			ctx := context.WithValue(r.Context(), ownerIDKey, ownerID)
			ctx = context.WithValue(ctx, tokenKey, parts[1])
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerIDFromContext возвращает идентификатор пользователя из проверенного токена.
func OwnerIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ownerIDKey).(string)
	return v
}

// TokenFromContext возвращает исходный bearer-токен запроса.
func TokenFromContext(ctx context.Context) string {
	v, _ := ctx.Value(tokenKey).(string)
	return v
}

// RequestLogger пишет метод, путь, статус и длительность каждого запроса.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Infof("%s %s -> %d (%d bytes) in %s request_id=%s",
				r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start), middleware.GetReqID(r.Context()))
		})
	}
}
