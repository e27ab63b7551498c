package models

import "time"

// BlacklistedToken — отозванный access-токен. Хранится до естественного
// истечения токена (ExpiresAt), после чего запись можно удалять.
type BlacklistedToken struct {
	JTI       string
	ExpiresAt time.Time
}
