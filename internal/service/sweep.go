package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pribylovaa/go-shop-auth/internal/metrics"
)

// SweepExpiredRefreshTokens удаляет просроченные refresh-сессии всех пользователей.
func (s *Service) SweepExpiredRefreshTokens(ctx context.Context) (int64, error) {
	const op = "service.sweep.SweepExpiredRefreshTokens"

	n, err := s.storage.DeleteExpiredRefreshTokens(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	metrics.Swept.WithLabelValues("refresh_tokens").Add(float64(n))

	return n, nil
}

// SweepExpiredBlacklist удаляет записи чёрного списка, чьи токены уже истекли.
// Для Redis это no-op: записи вытесняются по TTL.
func (s *Service) SweepExpiredBlacklist(ctx context.Context) (int64, error) {
	const op = "service.sweep.SweepExpiredBlacklist"

	n, err := s.blacklist.DeleteExpiredBlacklist(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	metrics.Swept.WithLabelValues("blacklist").Add(float64(n))

	return n, nil
}
