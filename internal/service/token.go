package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/models"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/pkg/log"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Виды токенов. Утверждение kind обязательно и проверяется на каждой
// операции: access-токен не принимается там, где требуется refresh,
// и наоборот.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// authClaims — утверждения bearer-токена.
//
// Access-токен несёт ссылку на аккаунт (sub), провайдера, внешний
// идентификатор и флаг заполненности профиля. Refresh-токен — только
// ссылку на аккаунт (минимум информации в долгоживущем артефакте).
type authClaims struct {
	Kind             string `json:"kind"`
	Provider         string `json:"provider,omitempty"`
	ExternalID       string `json:"external_id,omitempty"`
	ProfileCompleted bool   `json:"profile_completed,omitempty"`
	jwt.RegisteredClaims
}

func (c *authClaims) isKind(kind string) bool {
	return c.Kind == kind
}

// generateAccessToken выпускает короткоживущий access-токен аккаунта.
func (s *Service) generateAccessToken(account *models.Account, now time.Time) (string, error) {
	const op = "service.token.generateAccessToken"

	claims := authClaims{
		Kind:             TokenKindAccess,
		Provider:         account.Provider,
		ExternalID:       account.ExternalID,
		ProfileCompleted: account.ProfileCompleted,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// generateRefreshToken выпускает долгоживущий refresh-токен аккаунта.
func (s *Service) generateRefreshToken(accountID uuid.UUID, now time.Time) (string, error) {
	const op = "service.token.generateRefreshToken"

	claims := authClaims{
		Kind: TokenKindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// parseToken разбирает и проверяет подпись/срок действия токена.
//
// Конкретная причина отказа (просрочен / битый формат / неверная подпись)
// различима в логах для эксплуатации, но вызывающему возвращается только
// ErrTokenExpired либо ErrInvalidToken — обе причины схлопываются
// транспортом в 401 без деталей.
func (s *Service) parseToken(ctx context.Context, tokenStr string) (*authClaims, error) {
	const op = "service.token.parseToken"

	lg := log.From(ctx)

	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return []byte(s.cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			lg.Warn("token_expired", slog.String("op", op))
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		case errors.Is(err, jwt.ErrTokenMalformed):
			lg.Warn("token_malformed", slog.String("op", op))
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			lg.Warn("token_bad_signature", slog.String("op", op))
		default:
			lg.Warn("token_invalid", slog.String("op", op))
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims, nil
}

// accountIDFromClaims извлекает ссылку на аккаунт из утверждения sub.
func accountIDFromClaims(claims *authClaims) (uuid.UUID, error) {
	const op = "service.token.accountIDFromClaims"

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return id, nil
}
