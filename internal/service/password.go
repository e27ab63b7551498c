package service

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen   = 8
	maxPasswordBytes = 72
)

func (s *Service) bcryptCost() int {
	if s.cfg.BcryptCost < bcrypt.MinCost || s.cfg.BcryptCost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}

	return s.cfg.BcryptCost
}

// hashPassword хэширует пароль с помощью bcrypt.
func (s *Service) hashPassword(password string) (string, error) {
	const op = "service.password.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// refreshFingerprint сжимает refresh JWT до 43 байт: bcrypt принимает
// не больше 72 байт, а подписанный токен длиннее.
func refreshFingerprint(raw string) []byte {
	sum := sha256.Sum256([]byte(raw))
	return []byte(base64.RawURLEncoding.EncodeToString(sum[:]))
}

// hashRefreshToken возвращает солёный хэш refresh-токена для хранения.
func (s *Service) hashRefreshToken(raw string) (string, error) {
	const op = "service.password.hashRefreshToken"

	bytes, err := bcrypt.GenerateFromPassword(refreshFingerprint(raw), s.bcryptCost())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// matchRefreshToken сверяет сырой refresh-токен с сохранённым хэшем.
func matchRefreshToken(hash, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), refreshFingerprint(raw)) == nil
}

// validateEmail проверяет базовый формат email, обрезает пробелы
// и приводит к нижнему регистру.
func validateEmail(raw string) (string, error) {
	const op = "service.password.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}

// validatePassword — политика для регистрации: непустой и в пределах bcrypt.
func validatePassword(pw string) error {
	const op = "service.password.validatePassword"

	if pw == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len(pw) > maxPasswordBytes {
		return fmt.Errorf("%s: %w", op, ErrPasswordTooLong)
	}

	return nil
}

// validateNewPassword — политика для смены/сброса пароля и учёток
// администраторов: дополнительно не короче 8 символов.
func validateNewPassword(pw string) error {
	const op = "service.password.validateNewPassword"

	if err := validatePassword(pw); err != nil {
		return err
	}

	if len([]rune(pw)) < minPasswordLen {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}
