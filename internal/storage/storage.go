// storage описывает контракты хранилищ: пользователи, refresh-сессии
// и чёрный список access-токенов. Реализации: postgres (всё) и redis
// (только чёрный список).
package storage

//go:generate mockgen -source=storage.go -destination=../../mocks/mock_storage.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-shop-auth/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/refresh-сессия).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// ListUsers возвращает всех пользователей в порядке создания.
	ListUsers(ctx context.Context) ([]*models.User, error)
	// UpdateUser обновляет email, имя и роль.
	UpdateUser(ctx context.Context, user *models.User) error
	// UpdatePassword сохраняет новый хэш пароля, снимает флаг обязательной
	// смены пароля и очищает reset-токен.
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	// ConsumeResetToken атомарно меняет пароль по действующему reset-токену
	// token и удаляет все refresh-сессии пользователя. Если токен не совпал,
	// истёк или уже погашен, возвращает ErrNotFound и ничего не меняет.
	ConsumeResetToken(ctx context.Context, id uuid.UUID, token, hash string) error
	// DeleteUser удаляет пользователя вместе с его refresh-сессиями.
	DeleteUser(ctx context.Context, id uuid.UUID) error
	// SetTokensValidFrom сдвигает маркер глобального logout.
	SetTokensValidFrom(ctx context.Context, id uuid.UUID, t time.Time) error
	// SetResetToken сохраняет reset-токен и срок его действия.
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error
}

// RefreshTokenStorage выполняет операции над refresh-сессиями.
type RefreshTokenStorage interface {
	// ReplaceRefreshTokens в одной транзакции удаляет все сессии пользователя
	// и сохраняет новую (login/register).
	ReplaceRefreshTokens(ctx context.Context, token *models.RefreshToken) error
	// RotateRefreshToken в одной транзакции удаляет использованную сессию oldID
	// и заменяет ей все сессии пользователя. Если oldID уже удалена
	// (конкурентный refresh), возвращает ErrNotFound и ничего не меняет.
	RotateRefreshToken(ctx context.Context, oldID uuid.UUID, token *models.RefreshToken) error
	// RefreshTokensByUser возвращает все сессии пользователя.
	RefreshTokensByUser(ctx context.Context, userID uuid.UUID) ([]*models.RefreshToken, error)
	// DeleteRefreshToken удаляет одну сессию пользователя.
	DeleteRefreshToken(ctx context.Context, userID, id uuid.UUID) error
	// DeleteUserRefreshTokens удаляет все сессии пользователя.
	DeleteUserRefreshTokens(ctx context.Context, userID uuid.UUID) (int64, error)
	// DeleteExpiredRefreshTokens удаляет все просроченные сессии.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

// BlacklistStorage — чёрный список access-токенов по jti.
type BlacklistStorage interface {
	// BlacklistToken добавляет jti до момента expiresAt. Повтор не ошибка.
	BlacklistToken(ctx context.Context, jti string, expiresAt time.Time) error
	// IsBlacklisted сообщает, отозван ли jti.
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	// DeleteExpiredBlacklist удаляет записи с истёкшим сроком.
	DeleteExpiredBlacklist(ctx context.Context, now time.Time) (int64, error)
}

// Storage задает контракт основной БД.
type Storage interface {
	UserStorage
	RefreshTokenStorage
	Close()
}
