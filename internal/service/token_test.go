package service

import (
	"context"
	"testing"
	"time"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/config"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/models"
	"github.com/pribylovaa/go-fridge-market/auth-service/mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:       "unit-secret",
		AccessTokenTTL:  30 * time.Second,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "auth-service",
	}
}

func newSvc(t *testing.T) (*Service, *mocks.MockStorage, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	svc := New(st, testCfg(), nil)
	return svc, st, ctrl
}

func testAccount() *models.Account {
	return &models.Account{
		ID:         uuid.New(),
		Provider:   "google",
		ExternalID: "ext-12345",
		Email:      "user@example.com",
	}
}

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	account := testAccount()
	account.ProfileCompleted = true

	at, err := svc.generateAccessToken(account, time.Now().UTC())
	require.NoError(t, err)
	require.NotEmpty(t, at)

	claims, err := svc.parseToken(context.Background(), at)
	require.NoError(t, err)
	require.True(t, claims.isKind(TokenKindAccess))
	require.Equal(t, account.ID.String(), claims.Subject)
	require.Equal(t, "google", claims.Provider)
	require.Equal(t, "ext-12345", claims.ExternalID)
	require.True(t, claims.ProfileCompleted)
}

func TestGenerateRefreshToken_RoundTrip(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()

	rt, err := svc.generateRefreshToken(id, time.Now().UTC())
	require.NoError(t, err)

	claims, err := svc.parseToken(context.Background(), rt)
	require.NoError(t, err)
	require.True(t, claims.isKind(TokenKindRefresh))
	require.Equal(t, id.String(), claims.Subject)

	// В долгоживущем токене нет профильных атрибутов.
	require.Empty(t, claims.Provider)
	require.Empty(t, claims.ExternalID)
}

func TestParseToken_Malformed(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.parseToken(context.Background(), "not-a-jwt")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Отрицательный TTL -> уже истёкший токен (за пределами leeway).
	cfg := svc.cfg
	cfg.AccessTokenTTL = -time.Minute
	svc.cfg = cfg

	at, err := svc.generateAccessToken(testAccount(), time.Now().UTC())
	require.NoError(t, err)

	_, err = svc.parseToken(context.Background(), at)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	other := *svc
	cfg := other.cfg
	cfg.JWTSecret = "another-secret"
	other.cfg = cfg

	at, err := other.generateAccessToken(testAccount(), time.Now().UTC())
	require.NoError(t, err)

	_, err = svc.parseToken(context.Background(), at)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccountIDFromClaims_BadSubject(t *testing.T) {
	t.Parallel()

	claims := &authClaims{}
	claims.Subject = "not-a-uuid"

	_, err := accountIDFromClaims(claims)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}
