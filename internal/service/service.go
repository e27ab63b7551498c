// service содержит бизнес-логику аутентификации и сессий:
// выпуск и ротацию токенов, чёрный список access-токенов, глобальный logout,
// проверку сессии на каждый запрос, сброс и смену пароля, управление
// пользователями.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для
//     конкурентного использования при потокобезопасных хранилищах.
//   - Решения проверки сессии не кэшируются: чёрный список и маркер
//     глобального logout перечитываются из хранилища на каждый запрос.
//   - Ошибки возвращаются сентинелами ниже и маппятся транспортом
//     на HTTP-статусы (см. комментарии к переменным и пакет internal/errors).
package service

//go:generate mockgen -source=service.go -destination=../../mocks/mock_mailer.go -package=mocks

import (
	"context"
	"errors"

	"github.com/pribylovaa/go-shop-auth/internal/config"
	"github.com/pribylovaa/go-shop-auth/internal/storage"
)

var (
	// ErrInvalidCredentials — неверная пара email/пароль или пользователь не найден.
	// HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoToken — токен не предъявлен (нет Bearer-заголовка или refresh cookie).
	// HTTP 401.
	ErrNoToken = errors.New("no token provided")

	// ErrInvalidToken — токен некорректен по формату/подписи/claims. HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenBlacklisted — jti access-токена в чёрном списке (logout). HTTP 401.
	ErrTokenBlacklisted = errors.New("token has been revoked")

	// ErrTokenInvalidated — токен выпущен раньше маркера глобального logout. HTTP 401.
	ErrTokenInvalidated = errors.New("token invalidated by logout from all sessions")

	// ErrTokenRevoked — refresh-токен не совпал ни с одной активной сессией
	// (истёк, отозван или уже использован). HTTP 401.
	ErrTokenRevoked = errors.New("refresh token is invalid, expired, or revoked")

	// ErrUnknownSubject — пользователь из sub токена не существует. HTTP 401.
	ErrUnknownSubject = errors.New("token subject not found")

	// ErrPasswordChangeRequired — пользователь обязан сменить пароль, а операция
	// не входит в разрешённый набор. HTTP 403.
	ErrPasswordChangeRequired = errors.New("password change required")

	// ErrForbidden — недостаточно прав. HTTP 403.
	ErrForbidden = errors.New("access denied")

	// ErrUserNotFound — пользователь с указанным ID не найден. HTTP 404.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken — e-mail уже занят другим пользователем. HTTP 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrPasswordMismatch — новый пароль и подтверждение не совпадают. HTTP 400.
	ErrPasswordMismatch = errors.New("Passwords do not match.")

	// ErrInvalidEmail — e-mail имеет некорректный формат. HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrEmptyPassword — пароль пустой. HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrWeakPassword — новый пароль короче 8 символов. HTTP 400.
	ErrWeakPassword = errors.New("password must be at least 8 characters long")

	// ErrPasswordTooLong — пароль длиннее 72 байт (предел bcrypt). HTTP 400.
	ErrPasswordTooLong = errors.New("password is too long")

	// ErrInvalidArgument — прочие ошибки входных данных (роль, пустое тело). HTTP 400.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidResetToken — reset-токен не прошёл проверку подписи/срока,
	// не совпал с сохранённым или уже использован. HTTP 401.
	ErrInvalidResetToken = errors.New("Invalid or expired reset token")
)

// Mailer доставляет письмо со ссылкой на сброс пароля.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, token string) error
}

// Service описывает бизнес-логику аутентификации.
type Service struct {
	storage   storage.Storage
	blacklist storage.BlacklistStorage
	mailer    Mailer
	cfg       config.AuthConfig
}

// New создаёт новый экземпляр Service. Чёрный список передаётся отдельно:
// он может жить как в основной БД, так и в Redis.
func New(st storage.Storage, blacklist storage.BlacklistStorage, mailer Mailer, cfg config.AuthConfig) *Service {
	return &Service{
		storage:   st,
		blacklist: blacklist,
		mailer:    mailer,
		cfg:       cfg,
	}
}
