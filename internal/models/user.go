package models

import (
	"time"

	"github.com/google/uuid"
)

// Role — роль пользователя.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid сообщает, известна ли роль.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User — модель пользователя в системе.
//
// TokensValidFrom — маркер глобального logout: токены с iat раньше этого
// момента отклоняются независимо от чёрного списка.
// ResetToken/ResetTokenExpires заполнены только пока действует
// запрос на сброс пароля.
type User struct {
	ID                     uuid.UUID
	Email                  string
	Name                   string
	PasswordHash           string
	Role                   Role
	PasswordChangeRequired bool
	TokensValidFrom        time.Time
	ResetToken             *string
	ResetTokenExpires      *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// IsAdmin — сокращение для проверки роли ADMIN.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
