// kakao реализует обмен с Kakao OAuth2. В отличие от Google, профиль приходит
// вложенной структурой: числовой id в корне, email в kakao_account, ник и
// аватар — глубже, в kakao_account.profile. Любое из вложенных полей может
// отсутствовать, если пользователь не дал согласие на его раскрытие.
package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/config"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/models"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/provider"

	"golang.org/x/oauth2"
)

const defaultUserInfoURL = "https://kapi.kakao.com/v2/user/me"

// Endpoint — OAuth2-эндпойнты Kakao (x/oauth2 не поставляет их из коробки).
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://kauth.kakao.com/oauth/authorize",
	TokenURL: "https://kauth.kakao.com/oauth/token",
}

type Provider struct {
	oauth       *oauth2.Config
	httpClient  *http.Client
	userInfoURL string
}

// New создаёт провайдера Kakao. Возвращает nil, если client_id пуст.
func New(cfg config.ProviderConfig) *Provider {
	if cfg.ClientID == "" {
		return nil
	}

	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     Endpoint,
		},
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		userInfoURL: defaultUserInfoURL,
	}
}

func (p *Provider) Name() string {
	return "kakao"
}

// AuthorizationURL строит URL страницы авторизации Kakao.
func (p *Provider) AuthorizationURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// ExchangeCode меняет authorization code на профиль.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*models.Profile, error) {
	const op = "provider.kakao.ExchangeCode"

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, provider.ErrExchangeFailed, err)
	}

	return p.ProfileByToken(ctx, token.AccessToken)
}

// ProfileByToken запрашивает /v2/user/me по провайдерскому access-токену.
// Этим же путём работает мобильный флоу: iOS/Android SDK Kakao выполняет
// логин сам и присылает серверу готовый токен.
func (p *Provider) ProfileByToken(ctx context.Context, accessToken string) (*models.Profile, error) {
	const op = "provider.kakao.ProfileByToken"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, provider.ErrExchangeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w: status %d", op, provider.ErrExchangeFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, provider.ErrExchangeFailed, err)
	}

	var info struct {
		ID           json.Number `json:"id"`
		KakaoAccount struct {
			Email   string `json:"email"`
			Profile struct {
				Nickname        string `json:"nickname"`
				ProfileImageURL string `json:"profile_image_url"`
			} `json:"profile"`
		} `json:"kakao_account"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, provider.ErrExchangeFailed, err)
	}

	externalID := info.ID.String()
	if externalID == "" || externalID == "0" {
		externalID = ""
	} else if _, err := strconv.ParseInt(externalID, 10, 64); err != nil {
		externalID = ""
	}

	return &models.Profile{
		ExternalID:  externalID,
		Email:       info.KakaoAccount.Email,
		DisplayName: info.KakaoAccount.Profile.Nickname,
		AvatarURL:   info.KakaoAccount.Profile.ProfileImageURL,
	}, nil
}
