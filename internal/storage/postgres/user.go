package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/go-shop-auth/internal/models"
	"github.com/pribylovaa/go-shop-auth/internal/storage"
)

const userColumns = `
	id, email, name, password_hash, role, password_change_required,
	tokens_valid_from, reset_token, reset_token_expires, created_at, updated_at
`

// rowScanner — общий знаменатель pgx.Row и pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user models.User
		role string
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&role,
		&user.PasswordChangeRequired,
		&user.TokensValidFrom,
		&user.ResetToken,
		&user.ResetTokenExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Role = models.Role(role)
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// SaveUser создает нового пользователя в БД.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users(id, email, name, password_hash, role, password_change_required,
			tokens_valid_from, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		string(user.Role),
		user.PasswordChangeRequired,
		user.TokensValidFrom,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UserByEmail находит пользователя по email (регистронезависимо, CITEXT).
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgres.UserByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// ListUsers возвращает всех пользователей в порядке создания.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.postgres.ListUsers"

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

// UpdateUser обновляет email, имя и роль пользователя.
func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.UpdateUser"

	query := `
		UPDATE users
		SET email = $2, name = $3, role = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		string(user.Role),
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// UpdatePassword сохраняет новый хэш пароля, снимает флаг обязательной смены
// и очищает reset-токен.
func (s *Storage) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	const op = "storage.postgres.UpdatePassword"

	query := `
		UPDATE users
		SET password_hash = $2,
			password_change_required = FALSE,
			reset_token = NULL,
			reset_token_expires = NULL,
			updated_at = now()
		WHERE id = $1
	`

	return s.execOne(ctx, op, query, id, hash)
}

// ConsumeResetToken погашает reset-токен: в одной транзакции меняет пароль,
// только если сохранённый токен совпадает с token и не истёк, и удаляет
// все refresh-сессии пользователя.
//
// Условный UPDATE сериализует конкурентные сбросы одним токеном: второй
// ждёт коммита первого, видит reset_token = NULL и получает storage.ErrNotFound.
func (s *Storage) ConsumeResetToken(ctx context.Context, id uuid.UUID, token, hash string) error {
	const op = "storage.postgres.ConsumeResetToken"

	query := `
		UPDATE users
		SET password_hash = $3,
			password_change_required = FALSE,
			reset_token = NULL,
			reset_token_expires = NULL,
			updated_at = now()
		WHERE id = $1
			AND reset_token = $2
			AND reset_token_expires > now()
	`

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, id, token, hash)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return storage.ErrNotFound
		}

		return deleteUserTokens(ctx, tx, id)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteUser удаляет пользователя; refresh-сессии удаляются каскадно.
func (s *Storage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteUser"

	return s.execOne(ctx, op, `DELETE FROM users WHERE id = $1`, id)
}

// SetTokensValidFrom сдвигает маркер глобального logout.
func (s *Storage) SetTokensValidFrom(ctx context.Context, id uuid.UUID, t time.Time) error {
	const op = "storage.postgres.SetTokensValidFrom"

	query := `
		UPDATE users
		SET tokens_valid_from = $2, updated_at = now()
		WHERE id = $1
	`

	return s.execOne(ctx, op, query, id, t)
}

// SetResetToken сохраняет reset-токен и срок его действия.
func (s *Storage) SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	const op = "storage.postgres.SetResetToken"

	query := `
		UPDATE users
		SET reset_token = $2, reset_token_expires = $3, updated_at = now()
		WHERE id = $1
	`

	return s.execOne(ctx, op, query, id, token, expires)
}

// execOne выполняет запрос, который обязан затронуть ровно одну строку.
func (s *Storage) execOne(ctx context.Context, op, query string, args ...any) error {
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
