// google реализует обмен с Google OAuth2: authorization code flow и запрос
// userinfo по готовому токену. Атрибуты профиля Google приходят плоским
// JSON-объектом (id, email, name, picture).
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/config"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/models"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/provider"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type Provider struct {
	oauth       *oauth2.Config
	httpClient  *http.Client
	userInfoURL string
}

// New создаёт провайдера Google. Возвращает nil, если client_id пуст
// (провайдер не сконфигурирован).
func New(cfg config.ProviderConfig) *Provider {
	if cfg.ClientID == "" {
		return nil
	}

	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		userInfoURL: defaultUserInfoURL,
	}
}

func (p *Provider) Name() string {
	return "google"
}

// AuthorizationURL строит URL страницы согласия Google.
func (p *Provider) AuthorizationURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// ExchangeCode меняет authorization code на профиль: сначала токен,
// затем userinfo этим токеном.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*models.Profile, error) {
	const op = "provider.google.ExchangeCode"

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, provider.ErrExchangeFailed, err)
	}

	return p.ProfileByToken(ctx, token.AccessToken)
}

// ProfileByToken запрашивает userinfo по провайдерскому access-токену.
func (p *Provider) ProfileByToken(ctx context.Context, accessToken string) (*models.Profile, error) {
	const op = "provider.google.ProfileByToken"

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
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, provider.ErrExchangeFailed, err)
	}

	return &models.Profile{
		ExternalID:  info.ID,
		Email:       info.Email,
		DisplayName: info.Name,
		AvatarURL:   info.Picture,
	}, nil
}
