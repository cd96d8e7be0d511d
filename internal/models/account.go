package models

import (
	"time"

	"github.com/google/uuid"
)

// Account — локальная учётная запись пользователя маркетплейса.
//
// Идентичность задаётся парой (Provider, ExternalID): это идентификатор,
// под которым пользователя знает внешний провайдер (google, kakao).
// Пара уникальна и неизменна после создания.
//
// RefreshToken — действующий долгоживущий токен сессии. Перезаписывается
// при каждой успешной ротации; пустая строка — токен ещё не выпускался.
type Account struct {
	ID         uuid.UUID
	Provider   string
	ExternalID string

	// Nickname — ник, выбранный пользователем внутри сервиса.
	// При создании аккаунта остаётся пустым даже если провайдер
	// передал имя: онбординг должен запросить его явно.
	Nickname string
	// Name — отображаемое имя из профиля провайдера.
	Name      string
	Email     string
	AvatarURL string
	Phone     string
	Address   string

	// Agreed — принял ли пользователь условия сервиса.
	Agreed bool
	// ProfileCompleted — заполнены ли обязательные локальные поля профиля.
	ProfileCompleted bool

	RefreshToken string

	CreatedAt time.Time
	UpdatedAt time.Time
}
