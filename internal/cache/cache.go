// cache реализует кэш аккаунтов поверх Redis.
//
// Кэшируются только профильные данные (для эндпойнта текущего пользователя);
// refresh-токен в кэш намеренно не попадает — сверка при ротации всегда идёт
// по записи в БД.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AccountCache — минимальный контракт кэша аккаунтов.
type AccountCache interface {
	// Get возвращает аккаунт и признак его наличия в кэше.
	Get(ctx context.Context, id uuid.UUID) (*models.Account, bool, error)
	// Set сохраняет аккаунт с TTL.
	Set(ctx context.Context, account *models.Account, ttl time.Duration) error
	// Invalidate удаляет запись (после изменения профиля).
	Invalidate(ctx context.Context, id uuid.UUID) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// cachedAccount — сериализуемое представление аккаунта без refresh-токена.
type cachedAccount struct {
	ID               uuid.UUID `json:"id"`
	Provider         string    `json:"provider"`
	ExternalID       string    `json:"external_id"`
	Nickname         string    `json:"nickname"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	AvatarURL        string    `json:"avatar_url"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	Agreed           bool      `json:"agreed"`
	ProfileCompleted bool      `json:"profile_completed"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "auth:acc:".
func NewRedisCache(ctx context.Context, redisURL, prefix string) (AccountCache, error) {
	if prefix == "" {
		prefix = "auth:acc:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(id uuid.UUID) string {
	return c.prefix + id.String()
}

func (c *redisCache) Get(ctx context.Context, id uuid.UUID) (*models.Account, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}

		return nil, false, err
	}

	var ca cachedAccount
	if err := json.Unmarshal(raw, &ca); err != nil {
		// Битую запись выбрасываем и считаем промахом.
		_ = c.rdb.Del(ctx, c.key(id)).Err()
		return nil, false, nil
	}

	return &models.Account{
		ID:               ca.ID,
		Provider:         ca.Provider,
		ExternalID:       ca.ExternalID,
		Nickname:         ca.Nickname,
		Name:             ca.Name,
		Email:            ca.Email,
		AvatarURL:        ca.AvatarURL,
		Phone:            ca.Phone,
		Address:          ca.Address,
		Agreed:           ca.Agreed,
		ProfileCompleted: ca.ProfileCompleted,
		CreatedAt:        ca.CreatedAt,
		UpdatedAt:        ca.UpdatedAt,
	}, true, nil
}

func (c *redisCache) Set(ctx context.Context, account *models.Account, ttl time.Duration) error {
	ca := cachedAccount{
		ID:               account.ID,
		Provider:         account.Provider,
		ExternalID:       account.ExternalID,
		Nickname:         account.Nickname,
		Name:             account.Name,
		Email:            account.Email,
		AvatarURL:        account.AvatarURL,
		Phone:            account.Phone,
		Address:          account.Address,
		Agreed:           account.Agreed,
		ProfileCompleted: account.ProfileCompleted,
		CreatedAt:        account.CreatedAt,
		UpdatedAt:        account.UpdatedAt,
	}

	raw, err := json.Marshal(ca)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, c.key(account.ID), raw, ttl).Err()
}

func (c *redisCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.rdb.Del(ctx, c.key(id)).Err()
}

func (c *redisCache) Close() error {
	return c.rdb.Close()
}
