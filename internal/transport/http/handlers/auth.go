package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/go-fridge-market/auth-service/internal/errors"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/metrics"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/service"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/transport/http/middleware"
)

// stateCookie хранит anti-CSRF state между редиректом на провайдера и callback.
const stateCookie = "oauth_state"

// Login начинает браузерный OAuth2-флоу: редиректит на страницу авторизации
// провайдера, предварительно зафиксировав state в cookie.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")

	state, err := genState()
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	authURL, err := h.service.AuthorizationURL(providerName, state)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback завершает браузерный флоу: сверяет state, меняет code на профиль
// у провайдера и отдаёт пару токенов.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	label := h.providerLabel(providerName)

	q := r.URL.Query()

	// Провайдер вернул отказ вместо кода (пользователь отклонил доступ и т.п.).
	if q.Get("error") != "" {
		metrics.Logins.WithLabelValues(label, metrics.ResultError).Inc()
		apierrors.WriteError(w, r, service.ErrProviderExchangeFailed)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != q.Get("state") {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	// State одноразовый: гасим cookie независимо от исхода обмена.
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	code := q.Get("code")
	if code == "" {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	pair, account, err := h.service.CompleteLogin(r.Context(), providerName, code)
	if err != nil {
		metrics.Logins.WithLabelValues(label, metrics.ResultError).Inc()
		apierrors.WriteError(w, r, err)
		return
	}

	metrics.Logins.WithLabelValues(label, metrics.ResultOK).Inc()
	writeJSON(w, http.StatusOK, h.newTokenResponse(pair, account))
}

// TokenLogin — мобильный флоу: клиент получил access-токен провайдера через
// его SDK и присылает токен серверу напрямую.
func (h *Handlers) TokenLogin(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	label := h.providerLabel(providerName)

	var in struct {
		AccessToken string `json:"accessToken"`
	}
	if err := decodeStrict(r, &in); err != nil || in.AccessToken == "" {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	pair, account, err := h.service.LoginWithProviderToken(r.Context(), providerName, in.AccessToken)
	if err != nil {
		metrics.Logins.WithLabelValues(label, metrics.ResultError).Inc()
		apierrors.WriteError(w, r, err)
		return
	}

	metrics.Logins.WithLabelValues(label, metrics.ResultOK).Inc()
	writeJSON(w, http.StatusOK, h.newTokenResponse(pair, account))
}

// Refresh обменивает refresh-токен из заголовка Authorization на новую пару.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		metrics.Refreshes.WithLabelValues(metrics.ResultError).Inc()
		apierrors.WriteError(w, r, apierrors.ErrMalformedAuthHeader)
		return
	}

	pair, account, err := h.service.RefreshTokens(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrCredentialMismatch) {
			metrics.Refreshes.WithLabelValues(metrics.ResultRejected).Inc()
		} else {
			metrics.Refreshes.WithLabelValues(metrics.ResultError).Inc()
		}
		apierrors.WriteError(w, r, err)
		return
	}

	metrics.Refreshes.WithLabelValues(metrics.ResultOK).Inc()
	writeJSON(w, http.StatusOK, h.newTokenResponse(pair, account))
}

// providerLabel возвращает имя провайдера для метки метрик. Имена вне
// реестра схлопываются в одно значение: {provider} приходит из URL, и
// произвольные строки в метках раздували бы реестр метрик без предела.
func (h *Handlers) providerLabel(name string) string {
	if h.service.HasProvider(name) {
		return name
	}

	return metrics.ProviderUnknown
}

// genState выпускает одноразовый anti-CSRF state. Отказ источника энтропии
// фатален для логина: нулевой state обесценил бы проверку в callback.
func genState() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("handlers.genState: %w", err)
	}

	return hex.EncodeToString(b[:]), nil
}
