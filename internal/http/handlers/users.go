package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/go-shop-auth/internal/errors"
	"github.com/pribylovaa/go-shop-auth/internal/http/middleware"
	"github.com/pribylovaa/go-shop-auth/internal/models"
	"github.com/pribylovaa/go-shop-auth/internal/service"
)

// sessionUser возвращает пользователя текущей сессии.
func sessionUser(r *http.Request) (*models.User, error) {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		return nil, service.ErrNoToken
	}
	return session.User, nil
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user, err := sessionUser(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(user))
}

func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, err := sessionUser(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in updateUserRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	updated, err := h.svc.UpdateProfile(r.Context(), user.ID, in.toInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(updated))
}

func (h *Handlers) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, err := sessionUser(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.DeleteUser(r.Context(), user.ID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword меняет пароль и возвращает обновлённого пользователя
// (флаг passwordChangeRequired снят).
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, err := sessionUser(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in changePasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.ChangePassword(r.Context(), user.ID, in.toInput()); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	updated, err := h.svc.User(r.Context(), user.ID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(updated))
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, usersFromModels(users))
}

func (h *Handlers) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, err := h.svc.CreateAdmin(r.Context(), in.toInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userFromModel(user))
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, err := h.svc.User(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(user))
}

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in updateUserRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, err := h.svc.UpdateUser(r.Context(), id, in.toInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(user))
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
