package models

import "time"

// Session — результат проверки bearer-токена: пользователь и данные
// предъявленного access-токена. Передаётся хендлерам через контекст запроса.
type Session struct {
	User      *User
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
