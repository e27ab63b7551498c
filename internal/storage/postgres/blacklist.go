package postgres

import (
	"context"
	"fmt"
	"time"
)

// BlacklistToken добавляет jti в чёрный список до expiresAt.
// Повторное добавление того же jti — не ошибка.
func (s *Storage) BlacklistToken(ctx context.Context, jti string, expiresAt time.Time) error {
	const op = "storage.postgres.BlacklistToken"

	query := `
		INSERT INTO blacklisted_tokens(jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`

	if _, err := s.db.Exec(ctx, query, jti, expiresAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// IsBlacklisted сообщает, есть ли jti в чёрном списке.
func (s *Storage) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	const op = "storage.postgres.IsBlacklisted"

	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM blacklisted_tokens WHERE jti = $1)`, jti,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

// DeleteExpiredBlacklist удаляет записи, чьи токены уже истекли естественным образом.
func (s *Storage) DeleteExpiredBlacklist(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.postgres.DeleteExpiredBlacklist"

	tag, err := s.db.Exec(ctx, `DELETE FROM blacklisted_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}
