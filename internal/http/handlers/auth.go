package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/go-shop-auth/internal/errors"
	"github.com/pribylovaa/go-shop-auth/internal/http/middleware"
	"github.com/pribylovaa/go-shop-auth/internal/metrics"
	"github.com/pribylovaa/go-shop-auth/internal/models"
	"github.com/pribylovaa/go-shop-auth/internal/service"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Register(r.Context(), in.toInput())
	metrics.Event("register", err)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.writeAuth(w, http.StatusCreated, res)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), in.Email, in.Password)
	metrics.Event("login", err)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.writeAuth(w, http.StatusOK, res)
}

// Refresh берёт refresh-токен из cookie; access-токен не требуется.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Refresh(r.Context(), refreshFromCookie(r))
	metrics.Event("refresh", err)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.writeAuth(w, http.StatusOK, res)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrNoToken)
		return
	}

	err := h.svc.Logout(r.Context(), session, refreshFromCookie(r))
	metrics.Event("logout", err)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: msgLoggedOut})
}

func (h *Handlers) LogoutAll(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrNoToken)
		return
	}

	err := h.svc.LogoutAll(r.Context(), session.User.ID)
	metrics.Event("logout_all", err)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: msgLoggedOutAll})
}

// ForgotPassword всегда отвечает одинаково, чтобы не раскрывать наличие e-mail.
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in forgotPasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	err := h.svc.ForgotPassword(r.Context(), in.Email)
	metrics.Event("forgot_password", err)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: msgResetSent})
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetPasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	err := h.svc.ResetPassword(r.Context(), in.Token, in.NewPassword)
	metrics.Event("reset_password", err)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeAuth(w http.ResponseWriter, status int, res *models.AuthResult) {
	h.setRefreshCookie(w, res.Tokens.RefreshToken)
	writeJSON(w, status, authFromResult(res))
}
