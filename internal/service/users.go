package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-shop-auth/internal/models"
	"github.com/pribylovaa/go-shop-auth/internal/pkg/log"
	"github.com/pribylovaa/go-shop-auth/internal/storage"
)

// UpdateUserInput — частичное обновление пользователя; nil-поля не меняются.
// Role учитывается только в административном обновлении.
type UpdateUserInput struct {
	Email *string
	Name  *string
	Role  *models.Role
}

// ChangePasswordInput — смена пароля владельцем учётной записи.
type ChangePasswordInput struct {
	Current string
	New     string
	Confirm string
}

// User возвращает пользователя по ID.
func (s *Service) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "service.users.User"

	user, err := s.storage.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// ListUsers возвращает всех пользователей.
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "service.users.ListUsers"

	users, err := s.storage.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

// UpdateProfile обновляет email и имя самого пользователя.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*models.User, error) {
	in.Role = nil
	return s.UpdateUser(ctx, id, in)
}

// UpdateUser применяет частичное обновление (административный путь).
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*models.User, error) {
	const op = "service.users.UpdateUser"

	user, err := s.User(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if in.Email != nil {
		normEmail, err := validateEmail(*in.Email)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		user.Email = normEmail
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}

	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}
		user.Role = *in.Role
	}

	user.UpdatedAt = time.Now().UTC()

	if err := s.storage.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		case errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// ChangePassword меняет пароль после проверки текущего и снимает флаг
// обязательной смены пароля.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, in ChangePasswordInput) error {
	const op = "service.users.ChangePassword"

	if in.New != in.Confirm {
		return fmt.Errorf("%s: %w", op, ErrPasswordMismatch)
	}

	if err := validateNewPassword(in.New); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.User(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, in.Current) {
		log.From(ctx).Warn("change_password_bad_current",
			slog.String("op", op),
			slog.String("user_id", id.String()),
		)
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	hash, err := s.hashPassword(in.New)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdatePassword(ctx, id, hash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteUser удаляет пользователя вместе с refresh-сессиями.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	const op = "service.users.DeleteUser"

	if err := s.storage.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_deleted",
		slog.String("op", op),
		slog.String("user_id", id.String()),
	)

	return nil
}

// CreateAdmin создаёт администратора. Пароль выдан третьим лицом,
// поэтому при первом входе его нужно сменить.
func (s *Service) CreateAdmin(ctx context.Context, in RegisterInput) (*models.User, error) {
	const op = "service.users.CreateAdmin"

	if err := validateNewPassword(in.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.createUser(ctx, in, models.RoleAdmin, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("admin_created",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
	)

	return user, nil
}

// EnsureAdmin создаёт администратора, если пользователя с таким email ещё нет.
// Существующий пользователь не изменяется; второй результат сообщает,
// был ли пользователь создан.
func (s *Service) EnsureAdmin(ctx context.Context, email, name, password string) (*models.User, bool, error) {
	const op = "service.users.EnsureAdmin"

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	existing, err := s.storage.UserByEmail(ctx, normEmail)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.CreateAdmin(ctx, RegisterInput{Email: normEmail, Name: name, Password: password})
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	return user, true, nil
}
