package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-shop-auth/internal/models"
	"github.com/pribylovaa/go-shop-auth/internal/pkg/log"
	"github.com/pribylovaa/go-shop-auth/internal/pkg/redact"
	"github.com/pribylovaa/go-shop-auth/internal/storage"
)

// Authenticate проверяет bearer access-токен и возвращает сессию.
//
// Порядок проверок: подпись и срок, чёрный список по jti, существование
// пользователя, маркер tokensValidFrom, флаг обязательной смены пароля.
// allowPasswordChange разрешает маршрут пользователю с этим флагом.
func (s *Service) Authenticate(ctx context.Context, raw string, allowPasswordChange bool) (*models.Session, error) {
	const op = "service.session.Authenticate"

	lg := log.From(ctx)

	if raw == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoToken)
	}

	claims, err := s.parseToken(accessToken, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		lg.Error("blacklist_lookup_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if revoked {
		lg.Warn("token_blacklisted",
			slog.String("op", op),
			slog.String("jti", redact.ID(claims.ID)),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrTokenBlacklisted)
	}

	userID, _ := claims.userID()

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUnknownSubject)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if issuedBefore(claims.IssuedAt.Time, user.TokensValidFrom) {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenInvalidated)
	}

	if user.PasswordChangeRequired && !allowPasswordChange {
		return nil, fmt.Errorf("%s: %w", op, ErrPasswordChangeRequired)
	}

	return &models.Session{
		User:      user,
		TokenID:   claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// validateRefresh ищет среди активных refresh-сессий пользователя ту,
// чей хэш совпадает с предъявленным токеном.
//
// Поиск по хэшу невозможен (bcrypt солёный), поэтому это перебор
// с bcrypt-сравнением на каждую запись: O(число сессий пользователя).
// Login и refresh оставляют у пользователя одну сессию, так что на практике
// перебор короткий.
func (s *Service) validateRefresh(ctx context.Context, userID uuid.UUID, raw string) (*models.RefreshToken, error) {
	const op = "service.session.validateRefresh"

	records, err := s.storage.RefreshTokensByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	for _, rec := range records {
		if rec.Expired(now) {
			continue
		}

		if matchRefreshToken(rec.TokenHash, raw) {
			return rec, nil
		}
	}

	log.From(ctx).Warn("refresh_not_matched",
		slog.String("op", op),
		slog.String("user_id", userID.String()),
		slog.Int("sessions", len(records)),
	)

	return nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
}
