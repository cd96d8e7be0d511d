package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/go-fridge-market/auth-service/internal/errors"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/service"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/transport/http/middleware"
)

// Me возвращает аккаунт текущего пользователя.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	account, err := h.service.Account(r.Context(), identity.AccountID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountView(account))
}

// UpdateProfile завершает онбординг: сохраняет обязательные локальные поля
// профиля (ник, контакты, согласие с условиями).
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	var in struct {
		Nickname string `json:"nickname"`
		Phone    string `json:"phone"`
		Address  string `json:"address"`
		Agreed   bool   `json:"agreed"`
	}
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	account, err := h.service.CompleteProfile(r.Context(), identity.AccountID, service.ProfileUpdate{
		Nickname: in.Nickname,
		Phone:    in.Phone,
		Address:  in.Address,
		Agreed:   in.Agreed,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountView(account))
}
