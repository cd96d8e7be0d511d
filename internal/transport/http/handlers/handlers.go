// handlers реализует REST-эндпойнты identity-моста поверх сервисного слоя.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/config"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/models"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/service"
)

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	service *service.Service
	auth    config.AuthConfig
}

func New(svc *service.Service, auth config.AuthConfig) *Handlers {
	return &Handlers{
		service: svc,
		auth:    auth,
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// tokenResponse — ответ логина и ротации токенов.
// Времена жизни отдаются в секундах; tokenType всегда "Bearer".
type tokenResponse struct {
	AccessToken           string      `json:"accessToken"`
	RefreshToken          string      `json:"refreshToken"`
	AccessTokenExpiresIn  int64       `json:"accessTokenExpiresIn"`
	RefreshTokenExpiresIn int64       `json:"refreshTokenExpiresIn"`
	TokenType             string      `json:"tokenType"`
	Account               accountView `json:"account"`
}

// accountView — публичное представление аккаунта; refresh-токен и прочие
// служебные поля наружу не отдаются.
type accountView struct {
	ID               string `json:"id"`
	Provider         string `json:"provider"`
	Nickname         string `json:"nickname,omitempty"`
	Name             string `json:"name,omitempty"`
	Email            string `json:"email,omitempty"`
	AvatarURL        string `json:"avatarUrl,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Address          string `json:"address,omitempty"`
	Agreed           bool   `json:"agreed"`
	ProfileCompleted bool   `json:"profileCompleted"`
	CreatedAt        string `json:"createdAt,omitempty"`
}

func (h *Handlers) newTokenResponse(pair *models.TokenPair, account *models.Account) tokenResponse {
	return tokenResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresIn:  int64(h.auth.AccessTokenTTL / time.Second),
		RefreshTokenExpiresIn: int64(h.auth.RefreshTokenTTL / time.Second),
		TokenType:             "Bearer",
		Account:               newAccountView(account),
	}
}

func newAccountView(a *models.Account) accountView {
	view := accountView{
		ID:               a.ID.String(),
		Provider:         a.Provider,
		Nickname:         a.Nickname,
		Name:             a.Name,
		Email:            a.Email,
		AvatarURL:        a.AvatarURL,
		Phone:            a.Phone,
		Address:          a.Address,
		Agreed:           a.Agreed,
		ProfileCompleted: a.ProfileCompleted,
	}
	if !a.CreatedAt.IsZero() {
		view.CreatedAt = a.CreatedAt.UTC().Format(time.RFC3339)
	}

	return view
}
