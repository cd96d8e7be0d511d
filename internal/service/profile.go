package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/models"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/pkg/log"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/storage"

	"github.com/google/uuid"
)

// accountCacheTTL — срок жизни записи аккаунта в кэше.
const accountCacheTTL = 5 * time.Minute

// ProfileUpdate — данные онбординга: обязательные локальные поля профиля,
// которые провайдер не раскрывает.
type ProfileUpdate struct {
	Nickname string
	Phone    string
	Address  string
	Agreed   bool
}

// Account возвращает аккаунт по ссылке (для "текущего пользователя").
// Сначала пробует кэш; промах читает БД и прогревает кэш.
func (s *Service) Account(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	const op = "service.profile.Account"

	if s.acache != nil {
		cached, ok, err := s.acache.Get(ctx, id)
		if err != nil {
			// Недоступный кэш не фатален: идём в БД.
			log.From(ctx).Warn("account_cache_get_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		} else if ok {
			return cached, nil
		}
	}

	account, err := s.storage.AccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.acache != nil {
		if err := s.acache.Set(ctx, account, accountCacheTTL); err != nil {
			log.From(ctx).Warn("account_cache_set_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}
	}

	return account, nil
}

// CompleteProfile сохраняет обязательные локальные поля профиля и помечает
// профиль заполненным. Требования: непустой ник и принятые условия сервиса.
func (s *Service) CompleteProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*models.Account, error) {
	const op = "service.profile.CompleteProfile"

	nickname := strings.TrimSpace(upd.Nickname)
	if nickname == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNicknameRequired)
	}

	if !upd.Agreed {
		return nil, fmt.Errorf("%s: %w", op, ErrAgreementRequired)
	}

	account, err := s.storage.AccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	account.Nickname = nickname
	account.Phone = strings.TrimSpace(upd.Phone)
	account.Address = strings.TrimSpace(upd.Address)
	account.Agreed = true
	account.ProfileCompleted = true
	account.UpdatedAt = time.Now().UTC()

	if err := s.storage.UpdateAccountProfile(ctx, account); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidateAccountCache(ctx, account.ID)

	log.From(ctx).Info("profile_completed",
		slog.String("op", op),
		slog.String("account_id", account.ID.String()),
	)

	return account, nil
}

// invalidateAccountCache сбрасывает запись аккаунта в кэше после записи в БД.
func (s *Service) invalidateAccountCache(ctx context.Context, id uuid.UUID) {
	if s.acache == nil {
		return
	}

	if err := s.acache.Invalidate(ctx, id); err != nil {
		log.From(ctx).Warn("account_cache_invalidate_failed",
			slog.String("op", "service.profile.invalidateAccountCache"),
			slog.String("err", err.Error()),
		)
	}
}
