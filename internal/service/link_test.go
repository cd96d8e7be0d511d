package service

import (
	"context"
	"testing"
	"time"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/models"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/storage"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func TestRefreshProfileFields_NoChanges_NoWrite(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	account := testAccount()
	account.Name = "User Name"
	account.AvatarURL = "https://cdn.example.com/a.png"

	// Профиль идентичен сохранённому: UpdateAccountProfile не ожидается.
	err := svc.refreshProfileFields(context.Background(), account, testProfile())
	require.NoError(t, err)
}

func TestRefreshProfileFields_UpdatesChangedFields(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	account := testAccount()
	account.Name = "Old Name"
	account.Email = "old@example.com"
	account.Nickname = "chosen-nick"

	st.EXPECT().UpdateAccountProfile(gomock.Any(), account).Return(nil)

	err := svc.refreshProfileFields(context.Background(), account, testProfile())
	require.NoError(t, err)
	require.Equal(t, "User Name", account.Name)
	require.Equal(t, "user@example.com", account.Email)

	// Ник, выбранный пользователем, не затирается именем провайдера.
	require.Equal(t, "chosen-nick", account.Nickname)
}

func TestRefreshProfileFields_EmptyProviderValue_KeepsLocal(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	account := testAccount()
	account.Name = "Local Name"
	account.AvatarURL = "https://cdn.example.com/a.png"

	profile := &models.Profile{
		ExternalID: account.ExternalID,
		Email:      account.Email,
		// DisplayName и AvatarURL провайдер не сообщил.
	}

	err := svc.refreshProfileFields(context.Background(), account, profile)
	require.NoError(t, err)
	require.Equal(t, "Local Name", account.Name)
	require.Equal(t, "https://cdn.example.com/a.png", account.AvatarURL)
}

func TestRefreshProfileFields_SyncNicknameEnabled(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	cfg := svc.cfg
	cfg.SyncNickname = true
	svc.cfg = cfg

	account := testAccount()
	account.Name = "User Name"
	account.AvatarURL = "https://cdn.example.com/a.png"
	account.Nickname = "old-nick"

	st.EXPECT().UpdateAccountProfile(gomock.Any(), account).Return(nil)

	err := svc.refreshProfileFields(context.Background(), account, testProfile())
	require.NoError(t, err)
	require.Equal(t, "User Name", account.Nickname)
}

func TestLinkOrCreate_NilProfile(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, _, err := svc.linkOrCreate(context.Background(), "google", nil)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMissingExternalID)
}

func TestLinkOrCreate_NewAccount_Timestamps(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().AccountByProviderID(gomock.Any(), "google", "ext-12345").
		Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveAccount(gomock.Any(), gomock.Any()).Return(nil)

	account, isNew, err := svc.linkOrCreate(context.Background(), "google", testProfile())
	require.NoError(t, err)
	require.True(t, isNew)
	require.WithinDuration(t, time.Now().UTC(), account.CreatedAt, 2*time.Second)
	require.Equal(t, account.CreatedAt, account.UpdatedAt)
	require.Empty(t, account.RefreshToken)
}
