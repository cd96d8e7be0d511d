package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound — запись не найдена (аккаунт).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (provider, external_id).
	ErrAlreadyExists = errors.New("already exists")
)

// AccountStorage выполняет операции над аккаунтами.
type AccountStorage interface {
	// SaveAccount создаёт новый аккаунт. Возвращает ErrAlreadyExists,
	// если пара (provider, external_id) уже занята.
	SaveAccount(ctx context.Context, account *models.Account) error
	// AccountByProviderID находит аккаунт по паре (provider, external_id).
	AccountByProviderID(ctx context.Context, provider, externalID string) (*models.Account, error)
	// AccountByID находит аккаунт по ID.
	AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	// UpdateAccountProfile обновляет профильные поля аккаунта
	// (nickname, name, email, avatar_url, phone, address, agreed, profile_completed).
	UpdateAccountProfile(ctx context.Context, account *models.Account) error
	// SetRefreshTokenIfEmpty записывает refresh-токен только если у аккаунта
	// его ещё нет. Возвращает false, если токен уже установлен (гонку выиграл
	// другой логин) — вызывающий обязан перечитать аккаунт.
	SetRefreshTokenIfEmpty(ctx context.Context, id uuid.UUID, token string) (bool, error)
	// RotateRefreshToken атомарно заменяет refresh-токен аккаунта:
	// UPDATE ... WHERE id = $1 AND refresh_token = $2. Возвращает false,
	// если сохранённый токен не совпал с presented — из двух конкурентных
	// ротаций с одинаковым токеном выигрывает ровно одна.
	RotateRefreshToken(ctx context.Context, id uuid.UUID, presented, next string) (bool, error)
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	AccountStorage
	Close()
}
