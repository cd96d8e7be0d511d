package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/models"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Файл интеграционных тестов для пакета postgres (репозиторий account.go):
// - поднимает реальный PostgreSQL через testcontainers-go (образ postgres:16-alpine);
// - применяет миграции из ./migrations (1_init_accounts.up.sql);
// - проверяет happy-path (создание и поиск по (provider, external_id)/ID),
//   уникальность пары (provider, external_id), условные UPDATE refresh-токена
//   (первичная установка и CAS-ротация) и поведение при гонках;
// - валидирует сценарии отсутствия записей (storage.ErrNotFound) и ошибки контекста.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -race -count=1

// repoRootFromThisFile — определяет корень репозитория относительно текущего файла тестов.
// Используется для поиска SQL-миграций в каталоге ./migrations независимо от текущего рабочего каталога.
func repoRootFromThisFile() string {
	// internal/storage/postgres/... -> подняться на 3 уровня до корня.
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", ".."))
}

// readMigration — читает содержимое SQL-миграции из подкаталога ./migrations.
func readMigration(t *testing.T, name string) string {
	t.Helper()
	root := repoRootFromThisFile()
	path := filepath.Join(root, "migrations", name)
	b, err := os.ReadFile(path)
	require.NoError(t, err, "read migration %s", path)
	return string(b)
}

// startPostgres — поднимает временный экземпляр PostgreSQL через testcontainers-go,
// применяет миграцию accounts и возвращает инициализированное хранилище и функцию очистки.
// Если переменная окружения GO_TEST_INTEGRATION не установлена — тест пропускается.
func startPostgres(t *testing.T) (*Storage, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "5432/tcp")
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	// применяем миграции.
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, readMigration(t, "1_init_accounts.up.sql"))
	require.NoError(t, err)

	st, err := New(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		st.Close()
		_ = c.Terminate(context.Background())
	}
	return st, cleanup
}

func newAccount() *models.Account {
	now := time.Now().UTC()
	return &models.Account{
		ID:         uuid.New(),
		Provider:   "google",
		ExternalID: uuid.NewString(),
		Name:       "User",
		Email:      "user@example.com",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// TestIntegration_SaveAccount_And_Lookups_OK — happy-path: создание аккаунта
// и последующий поиск по паре (provider, external_id) и по ID.
func TestIntegration_SaveAccount_And_Lookups_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	a := newAccount()
	require.NoError(t, st.SaveAccount(context.Background(), a))

	got, err := st.AccountByProviderID(context.Background(), a.Provider, a.ExternalID)
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
	require.Equal(t, a.Email, got.Email)
	require.Empty(t, got.RefreshToken)
	require.WithinDuration(t, a.CreatedAt, got.CreatedAt, time.Second)

	byID, err := st.AccountByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, a.ID, byID.ID)
}

// TestIntegration_SaveAccount_DuplicateProviderID — конфликт уникальности
// пары (provider, external_id), ожидаем storage.ErrAlreadyExists.
func TestIntegration_SaveAccount_DuplicateProviderID(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	a := newAccount()
	require.NoError(t, st.SaveAccount(context.Background(), a))

	b := newAccount()
	b.ExternalID = a.ExternalID // та же внешняя идентичность
	err := st.SaveAccount(context.Background(), b)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	// Тот же external_id у другого провайдера — не конфликт.
	c := newAccount()
	c.Provider = "kakao"
	c.ExternalID = a.ExternalID
	require.NoError(t, st.SaveAccount(context.Background(), c))
}

// TestIntegration_Lookups_NotFound — поиск отсутствующих записей.
func TestIntegration_Lookups_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.AccountByProviderID(context.Background(), "google", "absent")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.AccountByID(context.Background(), uuid.New())
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_UpdateAccountProfile_OK — обновление профильных полей;
// ключ идентичности и refresh_token не затрагиваются.
func TestIntegration_UpdateAccountProfile_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	a := newAccount()
	require.NoError(t, st.SaveAccount(context.Background(), a))

	ok, err := st.SetRefreshTokenIfEmpty(context.Background(), a.ID, "rt-1")
	require.NoError(t, err)
	require.True(t, ok)

	a.Nickname = "fridge-fan"
	a.Phone = "010-1234-5678"
	a.Agreed = true
	a.ProfileCompleted = true
	require.NoError(t, st.UpdateAccountProfile(context.Background(), a))

	got, err := st.AccountByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, "fridge-fan", got.Nickname)
	require.True(t, got.ProfileCompleted)
	require.Equal(t, "rt-1", got.RefreshToken, "профильный UPDATE не трогает refresh_token")
}

// TestIntegration_UpdateAccountProfile_NotFound — обновление несуществующего
// аккаунта отдаёт storage.ErrNotFound.
func TestIntegration_UpdateAccountProfile_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	a := newAccount()
	err := st.UpdateAccountProfile(context.Background(), a)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_SetRefreshTokenIfEmpty — первичная установка токена проходит
// один раз; повторная попытка (токен уже есть) возвращает false.
func TestIntegration_SetRefreshTokenIfEmpty(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	a := newAccount()
	require.NoError(t, st.SaveAccount(context.Background(), a))

	ok, err := st.SetRefreshTokenIfEmpty(context.Background(), a.ID, "rt-first")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = st.SetRefreshTokenIfEmpty(context.Background(), a.ID, "rt-second")
	require.NoError(t, err)
	require.False(t, ok)

	got, err := st.AccountByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, "rt-first", got.RefreshToken)
}

// TestIntegration_RotateRefreshToken_CAS — ротация проходит только при
// дословном совпадении сохранённого токена с предъявленным.
func TestIntegration_RotateRefreshToken_CAS(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	a := newAccount()
	require.NoError(t, st.SaveAccount(context.Background(), a))

	ok, err := st.SetRefreshTokenIfEmpty(context.Background(), a.ID, "rt-old")
	require.NoError(t, err)
	require.True(t, ok)

	// Несовпадение: строка не найдена, false без ошибки.
	ok, err = st.RotateRefreshToken(context.Background(), a.ID, "rt-wrong", "rt-new")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = st.RotateRefreshToken(context.Background(), a.ID, "rt-old", "rt-new")
	require.NoError(t, err)
	require.True(t, ok)

	// Повтор с уже заменённым токеном — отказ.
	ok, err = st.RotateRefreshToken(context.Background(), a.ID, "rt-old", "rt-evil")
	require.NoError(t, err)
	require.False(t, ok)

	got, err := st.AccountByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, "rt-new", got.RefreshToken)
}

// TestIntegration_RotateRefreshToken_Concurrent — из N конкурентных ротаций
// с одним и тем же предъявленным токеном успешна ровно одна.
func TestIntegration_RotateRefreshToken_Concurrent(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	a := newAccount()
	require.NoError(t, st.SaveAccount(context.Background(), a))

	ok, err := st.SetRefreshTokenIfEmpty(context.Background(), a.ID, "rt-shared")
	require.NoError(t, err)
	require.True(t, ok)

	const n = 8

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)

	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()

			ok, err := st.RotateRefreshToken(context.Background(), a.ID, "rt-shared", fmt.Sprintf("rt-next-%d", i))
			if err != nil {
				t.Errorf("rotate: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	require.Equal(t, 1, wins, "ровно одна конкурентная ротация должна пройти")
}

// TestIntegration_ContextErrors — ошибки контекста просачиваются из запросов.
func TestIntegration_ContextErrors(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // отменяем заранее

	_, err := st.AccountByID(ctx, uuid.New())
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)

	dctx, dcancel := context.WithTimeout(context.Background(), 0)
	defer dcancel()

	err = st.SaveAccount(dctx, newAccount())
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
