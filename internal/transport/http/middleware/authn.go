package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/models"
	logctx "github.com/pribylovaa/go-fridge-market/auth-service/internal/pkg/log"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/pkg/redact"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/service"
)

type identityKey struct{}

// Authenticator проверяет access-токены запросов.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.Identity, error)
}

// Authn — аутентификация запроса по заголовку Authorization.
//
// Мидлвар работает в режиме fail-open: он никогда сам не отклоняет запрос.
// Отсутствующий, битый или просроченный токен оставляет запрос
// неаутентифицированным (с записью в лог), а решение «пускать или нет»
// принимает хендлер, проверяя наличие идентичности в контексте.
// Refresh-токен в роли bearer-учётки идентичность не устанавливает.
func Authn(auth Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				// Конкретная причина уже записана сервисным слоем; здесь
				// фиксируем только факт. Сам токен в лог не попадает.
				logctx.From(r.Context()).Warn("request_unauthenticated",
					slog.String("path", r.URL.Path),
					slog.String("token", redact.Token()),
				)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom достаёт идентичность запроса из контекста.
func IdentityFrom(ctx context.Context) (*models.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*models.Identity)
	return identity, ok && identity != nil
}

// BearerToken извлекает токен из заголовка Authorization ("Bearer <token>").
func BearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", false
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) || len(auth) <= len(prefix) {
		return "", false
	}

	token := strings.TrimSpace(auth[len(prefix):])
	if token == "" {
		return "", false
	}

	return token, true
}

// Интерфейсная проверка: сервис реализует Authenticator.
var _ Authenticator = (*service.Service)(nil)
