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
	"github.com/pribylovaa/go-shop-auth/internal/pkg/redact"
	"github.com/pribylovaa/go-shop-auth/internal/storage"
)

// RegisterInput — данные регистрации и создания пользователя администратором.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register регистрирует пользователя с ролью USER и сразу открывает сессию.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.AuthResult, error) {
	const op = "service.auth.Register"

	if err := validatePassword(in.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.createUser(ctx, in, models.RoleUser, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_registered",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
	)

	return s.startSession(ctx, user)
}

// Login выполняет вход по email+пароль. Все прежние refresh-сессии
// пользователя заменяются новой.
func (s *Service) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	const op = "service.auth.Login"

	lg := log.From(ctx)

	normEmail, err := validateEmail(email)
	if err != nil || password == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("login_unknown_email",
				slog.String("op", op),
				slog.String("email", redact.Email(normEmail)),
			)
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		lg.Warn("login_bad_password",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return s.startSession(ctx, user)
}

// Refresh обменивает refresh-токен на новую пару. Ротация атомарна:
// из конкурентных запросов с одним токеном успешен ровно один,
// остальные получают ErrTokenRevoked.
func (s *Service) Refresh(ctx context.Context, raw string) (*models.AuthResult, error) {
	const op = "service.auth.Refresh"

	lg := log.From(ctx)

	if raw == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoToken)
	}

	claims, err := s.parseToken(refreshToken, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	userID, _ := claims.userID()

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if issuedBefore(claims.IssuedAt.Time, user.TokensValidFrom) {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenInvalidated)
	}

	current, err := s.validateRefresh(ctx, user.ID, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()

	pair, err := s.issueTokens(ctx, user, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	next, err := s.newRefreshRecord(user.ID, pair, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.RotateRefreshToken(ctx, current.ID, next); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_rotation_lost",
				slog.String("op", op),
				slog.String("user_id", user.ID.String()),
			)
			return nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.AuthResult{Tokens: pair, User: user}, nil
}

// Logout завершает текущую сессию: jti access-токена попадает в чёрный
// список до его истечения, совпавшая refresh-сессия удаляется.
// Отсутствующий или чужой refresh-токен ошибкой не считается.
func (s *Service) Logout(ctx context.Context, session *models.Session, rawRefresh string) error {
	const op = "service.auth.Logout"

	if err := s.blacklist.BlacklistToken(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rawRefresh == "" {
		return nil
	}

	current, err := s.validateRefresh(ctx, session.User.ID, rawRefresh)
	if err != nil {
		if errors.Is(err, ErrTokenRevoked) {
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.DeleteRefreshToken(ctx, session.User.ID, current.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("logged_out",
		slog.String("op", op),
		slog.String("user_id", session.User.ID.String()),
		slog.String("jti", redact.ID(session.TokenID)),
	)

	return nil
}

// LogoutAll сдвигает маркер tokensValidFrom на текущий момент: все ранее
// выпущенные access- и refresh-токены пользователя перестают приниматься.
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	const op = "service.auth.LogoutAll"

	if err := s.storage.SetTokensValidFrom(ctx, userID, time.Now().UTC().Truncate(time.Millisecond)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("logged_out_all",
		slog.String("op", op),
		slog.String("user_id", userID.String()),
	)

	return nil
}

// createUser валидирует данные и сохраняет пользователя. Политика пароля
// проверяется вызывающим кодом.
func (s *Service) createUser(ctx context.Context, in RegisterInput, role models.Role, changeRequired bool) (*models.User, error) {
	const op = "service.auth.createUser"

	normEmail, err := validateEmail(in.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.storage.UserByEmail(ctx, normEmail)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:                     uuid.New(),
		Email:                  normEmail,
		Name:                   strings.TrimSpace(in.Name),
		PasswordHash:           hash,
		Role:                   role,
		PasswordChangeRequired: changeRequired,
		// Токены, выпущенные в момент регистрации, не должны упираться в маркер.
		TokensValidFrom: now.Add(-time.Second),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// startSession выпускает пару токенов и заменяет ей все refresh-сессии пользователя.
func (s *Service) startSession(ctx context.Context, user *models.User) (*models.AuthResult, error) {
	const op = "service.auth.startSession"

	now := time.Now().UTC()

	pair, err := s.issueTokens(ctx, user, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rec, err := s.newRefreshRecord(user.ID, pair, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.ReplaceRefreshTokens(ctx, rec); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.AuthResult{Tokens: pair, User: user}, nil
}
