package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/models"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/pkg/log"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/pkg/redact"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/storage"

	"github.com/google/uuid"
)

// linkOrCreate идемпотентно сопоставляет внешнюю идентичность с локальным
// аккаунтом: находит его по паре (provider, externalID) либо создаёт новый.
//
// Повторный вызов с той же парой всегда возвращает тот же аккаунт и никогда
// не плодит дубликаты: уникальное ограничение БД — механизм разрешения гонки
// двух первых логинов; проигравший перечитывает аккаунт победителя.
func (s *Service) linkOrCreate(ctx context.Context, providerName string, profile *models.Profile) (*models.Account, bool, error) {
	const op = "service.link.linkOrCreate"

	lg := log.From(ctx)

	if profile == nil || profile.ExternalID == "" {
		lg.Warn("profile_without_external_id",
			slog.String("op", op),
			slog.String("provider", providerName),
		)
		return nil, false, fmt.Errorf("%s: %w", op, ErrMissingExternalID)
	}

	account, err := s.storage.AccountByProviderID(ctx, providerName, profile.ExternalID)
	if err == nil {
		if err := s.refreshProfileFields(ctx, account, profile); err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}

		return account, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	account = &models.Account{
		ID:         uuid.New(),
		Provider:   providerName,
		ExternalID: profile.ExternalID,
		// Ник намеренно не берётся из профиля провайдера: имя внутри
		// сервиса выбирает сам пользователь на онбординге.
		Nickname:         "",
		Name:             profile.DisplayName,
		Email:            profile.Email,
		AvatarURL:        profile.AvatarURL,
		Agreed:           false,
		ProfileCompleted: false,
		RefreshToken:     "",
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.storage.SaveAccount(ctx, account); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			// Гонка двух первых логинов: возвращаем аккаунт победителя.
			winner, qerr := s.storage.AccountByProviderID(ctx, providerName, profile.ExternalID)
			if qerr != nil {
				return nil, false, fmt.Errorf("%s: %w", op, qerr)
			}

			lg.Info("account_create_race_resolved",
				slog.String("op", op),
				slog.String("provider", providerName),
				slog.String("external_id", redact.ExternalID(profile.ExternalID)),
			)

			return winner, false, nil
		}

		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("account_created",
		slog.String("op", op),
		slog.String("provider", providerName),
		slog.String("account_id", account.ID.String()),
		slog.String("email", redact.Email(account.Email)),
	)

	return account, true, nil
}

// refreshProfileFields выборочно обновляет поля существующего аккаунта данными
// из свежего профиля провайдера: только те, что провайдер реально сообщил
// и которые отличаются от сохранённых. Отсутствующее у провайдера значение
// никогда не затирает локальное.
//
// Ник пользователя обновляется именем провайдера только при включённой
// политике sync_nickname (по умолчанию выключена).
func (s *Service) refreshProfileFields(ctx context.Context, account *models.Account, profile *models.Profile) error {
	const op = "service.link.refreshProfileFields"

	changed := false

	if profile.Email != "" && profile.Email != account.Email {
		account.Email = profile.Email
		changed = true
	}
	if profile.DisplayName != "" && profile.DisplayName != account.Name {
		account.Name = profile.DisplayName
		changed = true
	}
	if profile.AvatarURL != "" && profile.AvatarURL != account.AvatarURL {
		account.AvatarURL = profile.AvatarURL
		changed = true
	}
	if s.cfg.SyncNickname && profile.DisplayName != "" && profile.DisplayName != account.Nickname {
		account.Nickname = profile.DisplayName
		changed = true
	}

	if !changed {
		return nil
	}

	if err := s.storage.UpdateAccountProfile(ctx, account); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.invalidateAccountCache(ctx, account.ID)

	return nil
}
