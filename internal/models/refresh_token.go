package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken — серверная запись refresh-сессии.
// Сырой токен не хранится: TokenHash — bcrypt от SHA-256 отпечатка токена,
// поэтому поиск по хэшу невозможен и сверка идёт перебором записей пользователя.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired сообщает, истёк ли срок записи на момент now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
