package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/config"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/provider"

	"github.com/stretchr/testify/require"
)

func testProvider(t *testing.T, userInfoURL string) *Provider {
	t.Helper()

	p := New(config.ProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://app.example.com/auth/google/callback",
	})
	require.NotNil(t, p)

	if userInfoURL != "" {
		p.userInfoURL = userInfoURL
	}

	return p
}

func TestNew_EmptyClientID_ReturnsNil(t *testing.T) {
	t.Parallel()

	require.Nil(t, New(config.ProviderConfig{}))
}

func TestAuthorizationURL_ContainsState(t *testing.T) {
	t.Parallel()

	p := testProvider(t, "")

	u := p.AuthorizationURL("state-xyz")
	require.Contains(t, u, "accounts.google.com")
	require.Contains(t, u, "state=state-xyz")
	require.Contains(t, u, "client_id=client-id")
}

func TestProfileByToken_OK(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer provider-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"108256","email":"u@gmail.com","name":"User","picture":"https://lh3.example/p.png"}`))
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)

	profile, err := p.ProfileByToken(context.Background(), "provider-token")
	require.NoError(t, err)
	require.Equal(t, "108256", profile.ExternalID)
	require.Equal(t, "u@gmail.com", profile.Email)
	require.Equal(t, "User", profile.DisplayName)
	require.Equal(t, "https://lh3.example/p.png", profile.AvatarURL)
}

func TestProfileByToken_Unauthorized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)

	_, err := p.ProfileByToken(context.Background(), "revoked")
	require.Error(t, err)
	require.ErrorIs(t, err, provider.ErrExchangeFailed)
}

func TestProfileByToken_BadJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)

	_, err := p.ProfileByToken(context.Background(), "tok")
	require.Error(t, err)
	require.ErrorIs(t, err, provider.ErrExchangeFailed)
}
