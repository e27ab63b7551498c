package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/go-shop-auth/internal/pkg/log"
	"github.com/pribylovaa/go-shop-auth/internal/pkg/redact"
	"github.com/pribylovaa/go-shop-auth/internal/storage"
)

// ForgotPassword выпускает reset-токен и отправляет ссылку на почту.
// Для неизвестного или некорректного email ничего не делает и возвращает nil,
// чтобы ответ не раскрывал, зарегистрирован ли адрес. Ошибка доставки
// письма только логируется.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	const op = "service.reset.ForgotPassword"

	lg := log.From(ctx)

	normEmail, err := validateEmail(email)
	if err != nil {
		lg.Debug("forgot_password_invalid_email", slog.String("op", op))
		return nil
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Info("forgot_password_unknown_email",
				slog.String("op", op),
				slog.String("email", redact.Email(normEmail)),
			)
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	token, claims, err := s.signToken(ctx, resetToken, user, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.SetResetToken(ctx, user.ID, token, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		lg.Error("reset_mail_failed",
			slog.String("op", op),
			slog.String("email", redact.Email(user.Email)),
			slog.String("err", err.Error()),
		)
		return nil
	}

	lg.Info("reset_mail_sent",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
	)

	return nil
}

// ResetPassword устанавливает новый пароль по reset-токену.
// Токен одноразовый: после успеха сохранённое значение очищается,
// а все refresh-сессии пользователя удаляются в той же транзакции.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "service.reset.ResetPassword"

	if err := validateNewPassword(newPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if token == "" {
		return fmt.Errorf("%s: %w", op, ErrInvalidResetToken)
	}

	claims, err := s.parseToken(resetToken, token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidResetToken)
	}

	userID, _ := claims.userID()

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrInvalidResetToken)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if user.ResetToken == nil || user.ResetTokenExpires == nil ||
		subtle.ConstantTimeCompare([]byte(*user.ResetToken), []byte(token)) != 1 ||
		!time.Now().UTC().Before(*user.ResetTokenExpires) {
		return fmt.Errorf("%s: %w", op, ErrInvalidResetToken)
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Повторная проверка и запись выполняются хранилищем атомарно:
	// из конкурентных сбросов одним токеном проходит ровно один.
	if err := s.storage.ConsumeResetToken(ctx, user.ID, token, hash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.From(ctx).Warn("reset_token_already_used",
				slog.String("op", op),
				slog.String("user_id", user.ID.String()),
			)
			return fmt.Errorf("%s: %w", op, ErrInvalidResetToken)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("password_reset",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
	)

	return nil
}
