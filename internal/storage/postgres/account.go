package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/models"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const accountColumns = `
	id, provider, external_id, nickname, name, email, avatar_url,
	phone, address, agreed, profile_completed, refresh_token,
	created_at, updated_at
`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.Provider,
		&account.ExternalID,
		&account.Nickname,
		&account.Name,
		&account.Email,
		&account.AvatarURL,
		&account.Phone,
		&account.Address,
		&account.Agreed,
		&account.ProfileCompleted,
		&account.RefreshToken,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// SaveAccount создаёт новый аккаунт в БД.
// Уникальность пары (provider, external_id) обеспечивается ограничением
// accounts_provider_external_id_key; нарушение транслируется в ErrAlreadyExists.
func (s *Storage) SaveAccount(ctx context.Context, account *models.Account) error {
	const op = "storage.postgres.SaveAccount"

	query := `
		INSERT INTO accounts(
			id, provider, external_id, nickname, name, email, avatar_url,
			phone, address, agreed, profile_completed, refresh_token,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := s.db.Exec(ctx, query,
		account.ID,
		account.Provider,
		account.ExternalID,
		account.Nickname,
		account.Name,
		account.Email,
		account.AvatarURL,
		account.Phone,
		account.Address,
		account.Agreed,
		account.ProfileCompleted,
		account.RefreshToken,
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// AccountByProviderID находит аккаунт по паре (provider, external_id).
func (s *Storage) AccountByProviderID(ctx context.Context, provider, externalID string) (*models.Account, error) {
	const op = "storage.postgres.AccountByProviderID"

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE provider = $1 AND external_id = $2
	`

	account, err := scanAccount(s.db.QueryRow(ctx, query, provider, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

// AccountByID находит аккаунт по ID.
func (s *Storage) AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	const op = "storage.postgres.AccountByID"

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`

	account, err := scanAccount(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

// UpdateAccountProfile обновляет профильные поля аккаунта.
// Ключ идентичности (provider, external_id) и refresh_token не трогаются.
func (s *Storage) UpdateAccountProfile(ctx context.Context, account *models.Account) error {
	const op = "storage.postgres.UpdateAccountProfile"

	query := `
		UPDATE accounts
		SET nickname = $2,
		    name = $3,
		    email = $4,
		    avatar_url = $5,
		    phone = $6,
		    address = $7,
		    agreed = $8,
		    profile_completed = $9,
		    updated_at = now()
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query,
		account.ID,
		account.Nickname,
		account.Name,
		account.Email,
		account.AvatarURL,
		account.Phone,
		account.Address,
		account.Agreed,
		account.ProfileCompleted,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// SetRefreshTokenIfEmpty записывает refresh-токен, только если он ещё не выпускался.
// false означает, что токен уже установлен (например, конкурентным логином).
func (s *Storage) SetRefreshTokenIfEmpty(ctx context.Context, id uuid.UUID, token string) (bool, error) {
	const op = "storage.postgres.SetRefreshTokenIfEmpty"

	query := `
		UPDATE accounts
		SET refresh_token = $2,
		    updated_at = now()
		WHERE id = $1 AND refresh_token = ''
	`

	cmdTag, err := s.db.Exec(ctx, query, id, token)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected() == 1, nil
}

// RotateRefreshToken атомарно заменяет refresh-токен аккаунта при условии,
// что сохранённый токен дословно совпадает с предъявленным. Условный UPDATE —
// единственная точка сериализации конкурентных ротаций: вторая ротация с тем
// же (уже заменённым) токеном не найдёт строку и получит false.
func (s *Storage) RotateRefreshToken(ctx context.Context, id uuid.UUID, presented, next string) (bool, error) {
	const op = "storage.postgres.RotateRefreshToken"

	query := `
		UPDATE accounts
		SET refresh_token = $3,
		    updated_at = now()
		WHERE id = $1 AND refresh_token = $2
	`

	cmdTag, err := s.db.Exec(ctx, query, id, presented, next)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected() == 1, nil
}
