package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/models"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/pkg/log"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/provider"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/storage"
)

// AuthorizationURL возвращает URL страницы авторизации провайдера.
func (s *Service) AuthorizationURL(providerName, state string) (string, error) {
	const op = "service.auth.AuthorizationURL"

	p, err := s.providers.ByName(providerName)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrUnknownProvider)
	}

	return p.AuthorizationURL(state), nil
}

// CompleteLogin завершает браузерный OAuth2-флоу: меняет authorization code
// на профиль у провайдера и выпускает пару токенов.
func (s *Service) CompleteLogin(ctx context.Context, providerName, code string) (*models.TokenPair, *models.Account, error) {
	const op = "service.auth.CompleteLogin"

	p, err := s.providers.ByName(providerName)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrUnknownProvider)
	}

	profile, err := p.ExchangeCode(ctx, code)
	if err != nil {
		log.From(ctx).Error("provider_exchange_failed",
			slog.String("op", op),
			slog.String("provider", providerName),
			slog.String("err", err.Error()),
		)

		if errors.Is(err, provider.ErrExchangeFailed) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrProviderExchangeFailed)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.finishLogin(ctx, providerName, profile)
}

// LoginWithProviderToken завершает мобильный флоу: клиент уже получил
// access-токен провайдера через его SDK и присылает токен серверу.
func (s *Service) LoginWithProviderToken(ctx context.Context, providerName, providerToken string) (*models.TokenPair, *models.Account, error) {
	const op = "service.auth.LoginWithProviderToken"

	p, err := s.providers.ByName(providerName)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrUnknownProvider)
	}

	profile, err := p.ProfileByToken(ctx, providerToken)
	if err != nil {
		log.From(ctx).Error("provider_userinfo_failed",
			slog.String("op", op),
			slog.String("provider", providerName),
			slog.String("err", err.Error()),
		)

		if errors.Is(err, provider.ErrExchangeFailed) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrProviderExchangeFailed)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.finishLogin(ctx, providerName, profile)
}

// finishLogin — общая часть обоих флоу: связывание аккаунта и выпуск пары.
//
// Политика refresh-токена: при логине существующий токен переиспользуется,
// новый выпускается только если действующего нет. Так свежий логин на одном
// устройстве не разлогинивает пользователя на остальных.
func (s *Service) finishLogin(ctx context.Context, providerName string, profile *models.Profile) (*models.TokenPair, *models.Account, error) {
	const op = "service.auth.finishLogin"

	lg := log.From(ctx)

	account, isNew, err := s.linkOrCreate(ctx, providerName, profile)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()

	refreshToken, err := s.ensureRefreshToken(ctx, account, now)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	accessToken, err := s.generateAccessToken(account, now)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("login_completed",
		slog.String("op", op),
		slog.String("provider", providerName),
		slog.String("account_id", account.ID.String()),
		slog.Bool("new_account", isNew),
	)

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}, account, nil
}

// ensureRefreshToken возвращает действующий refresh-токен аккаунта,
// выпуская новый только когда действующего нет (или сохранённый уже не
// проходит проверку — например, истёк у пользователя, давно не заходившего).
// Конкурентные первые логины разрешаются условными UPDATE: проигравший
// перечитывает и использует токен победителя.
func (s *Service) ensureRefreshToken(ctx context.Context, account *models.Account, now time.Time) (string, error) {
	const (
		op          = "service.auth.ensureRefreshToken"
		maxAttempts = 3
	)

	lg := log.From(ctx)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		stored := account.RefreshToken

		if stored != "" {
			claims, err := s.parseToken(ctx, stored)
			if err == nil && claims.isKind(TokenKindRefresh) {
				return stored, nil
			}

			// Сохранённый токен истёк или не читается — заменяем по CAS.
			next, err := s.generateRefreshToken(account.ID, now)
			if err != nil {
				return "", fmt.Errorf("%s: %w", op, err)
			}

			ok, err := s.storage.RotateRefreshToken(ctx, account.ID, stored, next)
			if err != nil {
				return "", fmt.Errorf("%s: %w", op, err)
			}
			if ok {
				lg.Info("stale_refresh_replaced",
					slog.String("op", op),
					slog.String("account_id", account.ID.String()),
				)
				account.RefreshToken = next
				return next, nil
			}
		} else {
			next, err := s.generateRefreshToken(account.ID, now)
			if err != nil {
				return "", fmt.Errorf("%s: %w", op, err)
			}

			ok, err := s.storage.SetRefreshTokenIfEmpty(ctx, account.ID, next)
			if err != nil {
				return "", fmt.Errorf("%s: %w", op, err)
			}
			if ok {
				account.RefreshToken = next
				return next, nil
			}
		}

		// Условный UPDATE не прошёл — токен сменил конкурентный запрос.
		// Перечитываем аккаунт и пробуем снова.
		fresh, err := s.storage.AccountByID(ctx, account.ID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return "", fmt.Errorf("%s: %w", op, ErrAccountNotFound)
			}

			return "", fmt.Errorf("%s: %w", op, err)
		}

		account.RefreshToken = fresh.RefreshToken
	}

	lg.Error("refresh_issue_contention_exceeded",
		slog.String("op", op),
		slog.String("account_id", account.ID.String()),
	)

	return "", fmt.Errorf("%s: refresh token contention not resolved", op)
}

// RefreshTokens обменивает предъявленный refresh-токен на новую пару.
//
// Дословное совпадение предъявленного токена с сохранённым у аккаунта —
// единственная защита от повторного использования: уже ротированный токен
// отклоняется, даже если его подпись и срок всё ещё валидны. Сама замена
// выполняется условным UPDATE, поэтому из двух конкурентных ротаций с одним
// и тем же токеном успешна ровно одна.
func (s *Service) RefreshTokens(ctx context.Context, presented string) (*models.TokenPair, *models.Account, error) {
	const op = "service.auth.RefreshTokens"

	lg := log.From(ctx)

	claims, err := s.parseToken(ctx, presented)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !claims.isKind(TokenKindRefresh) {
		lg.Warn("refresh_with_wrong_kind",
			slog.String("op", op),
			slog.String("kind", claims.Kind),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrWrongTokenKind)
	}

	accountID, err := accountIDFromClaims(claims)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	account, err := s.storage.AccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if account.RefreshToken != presented {
		lg.Warn("refresh_token_reuse_detected",
			slog.String("op", op),
			slog.String("account_id", account.ID.String()),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrCredentialMismatch)
	}

	now := time.Now().UTC()

	nextRefresh, err := s.generateRefreshToken(account.ID, now)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	ok, err := s.storage.RotateRefreshToken(ctx, account.ID, presented, nextRefresh)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		// Конкурентная ротация успела первой: для этого вызова предъявленный
		// токен уже отозван.
		lg.Warn("refresh_rotation_lost_race",
			slog.String("op", op),
			slog.String("account_id", account.ID.String()),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrCredentialMismatch)
	}

	account.RefreshToken = nextRefresh

	accessToken, err := s.generateAccessToken(account, now)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("tokens_rotated",
		slog.String("op", op),
		slog.String("account_id", account.ID.String()),
	)

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    nextRefresh,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}, account, nil
}

// Authenticate проверяет access-токен и возвращает идентичность запроса.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*models.Identity, error) {
	const op = "service.auth.Authenticate"

	claims, err := s.parseToken(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !claims.isKind(TokenKindAccess) {
		// Refresh-токен в роли bearer-учётки не даёт доступа к API.
		log.From(ctx).Warn("bearer_with_wrong_kind",
			slog.String("op", op),
			slog.String("kind", claims.Kind),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrWrongTokenKind)
	}

	accountID, err := accountIDFromClaims(claims)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.Identity{
		AccountID:  accountID,
		Provider:   claims.Provider,
		ExternalID: claims.ExternalID,
	}, nil
}
