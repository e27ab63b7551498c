package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/go-shop-auth/internal/models"
	"github.com/pribylovaa/go-shop-auth/internal/pkg/log"
)

func init() {
	// iat сравнивается с tokensValidFrom с точностью до миллисекунды.
	jwt.TimePrecision = time.Millisecond
}

// issuedBefore сообщает, выпущен ли токен раньше маркера tokensValidFrom.
//
// iat хранится в JWT с точностью до миллисекунды и после разбора float может
// отстать на доли микросекунды, поэтому iat округляется, а маркер усекается
// до миллисекунды. Токен, выпущенный в ту же миллисекунду, что и маркер,
// принимается: вход сразу после logout-all всегда успешен.
func issuedBefore(iat, marker time.Time) bool {
	return iat.Round(time.Millisecond).Before(marker.Truncate(time.Millisecond))
}

type tokenKind int

const (
	accessToken tokenKind = iota
	refreshToken
	resetToken
)

func (k tokenKind) String() string {
	switch k {
	case accessToken:
		return "access"
	case refreshToken:
		return "refresh"
	case resetToken:
		return "reset"
	default:
		return "unknown"
	}
}

type tokenClaims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// userID возвращает ID пользователя из sub.
func (c *tokenClaims) userID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

func (s *Service) secret(kind tokenKind) []byte {
	switch kind {
	case refreshToken:
		return []byte(s.cfg.RefreshSecret)
	case resetToken:
		return []byte(s.cfg.ResetSecret)
	default:
		return []byte(s.cfg.AccessSecret)
	}
}

func (s *Service) ttl(kind tokenKind) time.Duration {
	switch kind {
	case refreshToken:
		return s.cfg.RefreshTokenTTL
	case resetToken:
		return s.cfg.ResetTokenTTL
	default:
		return s.cfg.AccessTokenTTL
	}
}

// signToken подписывает токен указанного вида для пользователя.
// Каждый токен получает уникальный jti.
func (s *Service) signToken(ctx context.Context, kind tokenKind, user *models.User, now time.Time) (string, *tokenClaims, error) {
	const op = "service.token.signToken"

	claims := &tokenClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl(kind))),
		},
	}
	if kind != resetToken {
		claims.Role = user.Role
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret(kind))
	if err != nil {
		log.From(ctx).Error("token_sign_failed",
			slog.String("op", op),
			slog.String("kind", kind.String()),
			slog.String("err", err.Error()),
		)
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	return signed, claims, nil
}

// parseToken проверяет подпись, алгоритм, издателя, iat и exp.
// Истёкший токен даёт ErrTokenExpired, любой другой дефект — ErrInvalidToken.
func (s *Service) parseToken(kind tokenKind, raw string) (*tokenClaims, error) {
	const op = "service.token.parseToken"

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret(kind), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if !token.Valid || claims.ID == "" || claims.IssuedAt == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if _, err := claims.userID(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims, nil
}

// issueTokens выпускает пару access/refresh. Сохранение refresh-сессии
// остаётся за вызывающим кодом: login заменяет сессии, refresh ротирует.
func (s *Service) issueTokens(ctx context.Context, user *models.User, now time.Time) (*models.TokenPair, error) {
	const op = "service.token.issueTokens"

	access, accessClaims, err := s.signToken(ctx, accessToken, user, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, refreshClaims, err := s.signToken(ctx, refreshToken, user, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessClaims.ExpiresAt.Time,
		RefreshExpiresAt: refreshClaims.ExpiresAt.Time,
	}, nil
}

// newRefreshRecord готовит запись refresh-сессии с хэшем токена.
func (s *Service) newRefreshRecord(userID uuid.UUID, pair *models.TokenPair, now time.Time) (*models.RefreshToken, error) {
	const op = "service.token.newRefreshRecord"

	hash, err := s.hashRefreshToken(pair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: pair.RefreshExpiresAt,
		CreatedAt: now,
	}, nil
}
