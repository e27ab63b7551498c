package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pribylovaa/go-shop-auth/internal/models"
	"github.com/pribylovaa/go-shop-auth/internal/storage"
)

// ReplaceRefreshTokens удаляет все сессии пользователя и сохраняет новую
// в одной транзакции.
func (s *Storage) ReplaceRefreshTokens(ctx context.Context, token *models.RefreshToken) error {
	const op = "storage.postgres.ReplaceRefreshTokens"

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if err := deleteUserTokens(ctx, tx, token.UserID); err != nil {
			return err
		}

		return insertRefreshToken(ctx, tx, token)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RotateRefreshToken удаляет использованную сессию oldID и заменяет ей все
// сессии пользователя в одной транзакции.
//
// Условное удаление oldID сериализует конкурентные refresh одной сессии:
// второй DELETE ждёт коммита первого и затрагивает 0 строк, после чего
// транзакция откатывается с storage.ErrNotFound.
func (s *Storage) RotateRefreshToken(ctx context.Context, oldID uuid.UUID, token *models.RefreshToken) error {
	const op = "storage.postgres.RotateRefreshToken"

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM refresh_tokens WHERE id = $1 AND user_id = $2`,
			oldID, token.UserID,
		)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return storage.ErrNotFound
		}

		if err := deleteUserTokens(ctx, tx, token.UserID); err != nil {
			return err
		}

		return insertRefreshToken(ctx, tx, token)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RefreshTokensByUser возвращает все сессии пользователя, новые первыми.
func (s *Storage) RefreshTokensByUser(ctx context.Context, userID uuid.UUID) ([]*models.RefreshToken, error) {
	const op = "storage.postgres.RefreshTokensByUser"

	query := `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM refresh_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	tokens := make([]*models.RefreshToken, 0)
	for rows.Next() {
		var t models.RefreshToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tokens = append(tokens, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tokens, nil
}

// DeleteRefreshToken удаляет одну сессию пользователя.
func (s *Storage) DeleteRefreshToken(ctx context.Context, userID, id uuid.UUID) error {
	const op = "storage.postgres.DeleteRefreshToken"

	return s.execOne(ctx, op, `DELETE FROM refresh_tokens WHERE id = $1 AND user_id = $2`, id, userID)
}

// DeleteUserRefreshTokens удаляет все сессии пользователя.
func (s *Storage) DeleteUserRefreshTokens(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "storage.postgres.DeleteUserRefreshTokens"

	tag, err := s.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}

// DeleteExpiredRefreshTokens удаляет все просроченные сессии.
func (s *Storage) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.postgres.DeleteExpiredRefreshTokens"

	tag, err := s.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}

func deleteUserTokens(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	_, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	return err
}

// insertRefreshToken сначала удаляет просроченные сессии пользователя,
// затем вставляет новую.
func insertRefreshToken(ctx context.Context, tx pgx.Tx, token *models.RefreshToken) error {
	_, err := tx.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = $1 AND expires_at <= $2`,
		token.UserID, token.CreatedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO refresh_tokens(id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
	)

	return err
}
