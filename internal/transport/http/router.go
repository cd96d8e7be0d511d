// Package http собирает HTTP-роутер identity-моста: middleware-цепочку,
// REST-маршруты и служебные эндпойнты (liveness/readiness/metrics).
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/config"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/service"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/transport/http/handlers"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.

	// Ready сообщает готовность сервиса принимать трафик (для /healthz).
	// nil означает "всегда готов".
	Ready func() bool
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, authCfg config.AuthConfig, opts Options) http.Handler {
	root := chi.NewRouter()

	// Служебные маршруты живут на корне независимо от BasePath.
	root.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	root.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if opts.Ready != nil && !opts.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	root.Handle("/metrics", promhttp.Handler())

	// Зависимости хендлеров.
	h := handlers.New(svc, authCfg)

	// Регистрация маршрутов.
	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h)
		root.Mount(opts.BasePath, sub)
	} else {
		registerRoutes(root, h)
	}

	// Middleware-цепочка оборачивает роутер целиком (внешний -> внутренний),
	// поэтому действует и на служебные маршруты.
	mws := []middleware.Middleware{
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Authn(svc),           // fail-open: извлекаем идентичность из Bearer-токена
	}
	if opts.Timeout > 0 {
		mws = append(mws, middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	return middleware.Chain(root, mws...)
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// социальный логин
	r.Get("/auth/{provider}/login", h.Login)
	r.Get("/auth/{provider}/callback", h.Callback)
	r.Post("/auth/{provider}/token", h.TokenLogin)

	// сессия
	r.Post("/auth/token/refresh", h.Refresh)

	// профиль
	r.Get("/auth/me", h.Me)
	r.Put("/auth/profile", h.UpdateProfile)
}
