// service содержит бизнес-логику identity-моста маркетплейса:
// сопоставление внешних социальных идентичностей с локальными аккаунтами,
// выпуск/проверку JWT-токенов и ротацию refresh-токенов.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Секрет подписи читается из конфигурации один раз и далее не меняется.
//   - Ошибки возвращаются сентинелами и далее маппятся транспортом
//     на HTTP-статусы (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/cache"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/config"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/provider"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/storage"
)

var (
	// ErrInvalidToken — токен некорректен по формату или подписи.
	// Транспорт: 401. Конкретная причина (malformed/bad signature)
	// различается только во внутренних логах.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. Транспорт: 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrWrongTokenKind — структурно валидный токен предъявлен не по
	// назначению (refresh вместо access или наоборот). Транспорт: 401.
	ErrWrongTokenKind = errors.New("wrong token kind")

	// ErrCredentialMismatch — предъявленный refresh-токен не совпал с
	// сохранённым у аккаунта. Сигнал возможного повторного использования
	// украденного токена; клиент обязан пройти полный логин заново.
	// Транспорт: 401.
	ErrCredentialMismatch = errors.New("refresh token mismatch")

	// ErrAccountNotFound — аккаунт, на который ссылается токен, не существует.
	// Транспорт: 404.
	ErrAccountNotFound = errors.New("account not found")

	// ErrMissingExternalID — провайдер не раскрыл уникальный идентификатор
	// пользователя; логин невозможен без повторной авторизации у провайдера.
	// Транспорт: 401.
	ErrMissingExternalID = errors.New("provider profile has no external id")

	// ErrProviderExchangeFailed — провайдер недоступен либо отверг
	// авторизационный артефакт. Транспорт: 502.
	ErrProviderExchangeFailed = errors.New("provider exchange failed")

	// ErrUnknownProvider — запрошен не сконфигурированный провайдер.
	// Транспорт: 404.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrNicknameRequired — при завершении профиля не передан ник.
	// Транспорт: 400.
	ErrNicknameRequired = errors.New("nickname is required")

	// ErrAgreementRequired — условия сервиса не приняты. Транспорт: 400.
	ErrAgreementRequired = errors.New("terms agreement is required")
)

// Service описывает бизнес-логику identity-моста.
type Service struct {
	storage   storage.AccountStorage
	cfg       config.AuthConfig
	providers *provider.Registry
	acache    cache.AccountCache // может быть nil, если кэш не сконфигурирован
}

// New создаёт новый экземпляр Service.
func New(store storage.AccountStorage, cfg config.AuthConfig, providers *provider.Registry) *Service {
	if providers == nil {
		providers = provider.NewRegistry()
	}

	return &Service{
		storage:   store,
		cfg:       cfg,
		providers: providers,
	}
}

// SetAccountCache устанавливает кэш аккаунтов (опционально).
func (s *Service) SetAccountCache(c cache.AccountCache) {
	s.acache = c
}

// HasProvider сообщает, сконфигурирован ли провайдер с данным именем.
func (s *Service) HasProvider(name string) bool {
	_, err := s.providers.ByName(name)
	return err == nil
}
