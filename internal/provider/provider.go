// provider определяет контракт обмена с внешними провайдерами социального
// логина и реестр их реализаций.
//
// Каждый провайдер нормализует собственный формат профиля (google и kakao
// раскладывают атрибуты по-разному) в общий models.Profile, поэтому
// остальной код сервиса не знает про конкретные схемы ответов.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/models"
)

var (
	// ErrUnknownProvider — провайдер не сконфигурирован или не поддерживается.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrExchangeFailed — провайдер недоступен либо отверг код/токен.
	// Фатально для текущей попытки логина; повтор требует нового логина.
	ErrExchangeFailed = errors.New("provider exchange failed")
)

// Provider — обмен авторизационного артефакта на нормализованный профиль.
type Provider interface {
	// Name возвращает имя провайдера ("google", "kakao").
	Name() string
	// AuthorizationURL строит URL страницы авторизации провайдера.
	AuthorizationURL(state string) string
	// ExchangeCode меняет authorization code на профиль пользователя
	// (code -> провайдерский access token -> userinfo).
	ExchangeCode(ctx context.Context, code string) (*models.Profile, error)
	// ProfileByToken запрашивает профиль по готовому провайдерскому
	// access-токену (мобильный флоу: SDK провайдера уже выполнил логин).
	ProfileByToken(ctx context.Context, accessToken string) (*models.Profile, error)
}

// Registry — набор сконфигурированных провайдеров по имени.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry собирает реестр из непустых провайдеров.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}

	return r
}

// ByName возвращает провайдера по имени.
func (r *Registry) ByName(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}

	return p, nil
}

// Names возвращает имена зарегистрированных провайдеров.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}

	return names
}
