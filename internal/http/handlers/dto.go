package handlers

import (
	"time"

	"github.com/pribylovaa/go-shop-auth/internal/models"
	"github.com/pribylovaa/go-shop-auth/internal/service"
)

// Входные/выходные модели REST.

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (r registerRequest) toInput() service.RegisterInput {
	return service.RegisterInput{Email: r.Email, Name: r.Name, Password: r.Password}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type changePasswordRequest struct {
	CurrentPassword         string `json:"currentPassword"`
	NewPassword             string `json:"newPassword"`
	NewPasswordConfirmation string `json:"newPasswordConfirmation"`
}

func (r changePasswordRequest) toInput() service.ChangePasswordInput {
	return service.ChangePasswordInput{
		Current: r.CurrentPassword,
		New:     r.NewPassword,
		Confirm: r.NewPasswordConfirmation,
	}
}

// updateUserRequest — частичное обновление; отсутствующие поля не меняются.
// Role принимается только административным маршрутом.
type updateUserRequest struct {
	Email *string      `json:"email,omitempty"`
	Name  *string      `json:"name,omitempty"`
	Role  *models.Role `json:"role,omitempty"`
}

func (r updateUserRequest) toInput() service.UpdateUserInput {
	return service.UpdateUserInput{Email: r.Email, Name: r.Name, Role: r.Role}
}

type userResponse struct {
	ID                     string      `json:"id"`
	Email                  string      `json:"email"`
	Name                   string      `json:"name"`
	Role                   models.Role `json:"role"`
	PasswordChangeRequired bool        `json:"passwordChangeRequired"`
	CreatedAt              time.Time   `json:"createdAt"`
	UpdatedAt              time.Time   `json:"updatedAt"`
}

func userFromModel(u *models.User) userResponse {
	return userResponse{
		ID:                     u.ID.String(),
		Email:                  u.Email,
		Name:                   u.Name,
		Role:                   u.Role,
		PasswordChangeRequired: u.PasswordChangeRequired,
		CreatedAt:              u.CreatedAt,
		UpdatedAt:              u.UpdatedAt,
	}
}

func usersFromModels(us []*models.User) []userResponse {
	out := make([]userResponse, 0, len(us))
	for _, u := range us {
		out = append(out, userFromModel(u))
	}
	return out
}

type authResponse struct {
	AccessToken string       `json:"accessToken"`
	User        userResponse `json:"user"`
}

func authFromResult(res *models.AuthResult) authResponse {
	return authResponse{
		AccessToken: res.Tokens.AccessToken,
		User:        userFromModel(res.User),
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

const (
	msgLoggedOut    = "Logged out successfully"
	msgLoggedOutAll = "Logged out from all sessions successfully"
	msgResetSent    = "If the email is registered, a reset link has been sent"
)
