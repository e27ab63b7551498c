package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-shop-auth/internal/models"
	"github.com/pribylovaa/go-shop-auth/internal/storage"
)

// TestIntegration_SaveUser_And_Lookup_OK — сохранение и поиск по email (CITEXT) и ID.
func TestIntegration_SaveUser_And_Lookup_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := seedUser(t, st, "User@Example.com")

	byEmail, err := st.UserByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
	require.Equal(t, models.RoleUser, byEmail.Role)
	require.False(t, byEmail.PasswordChangeRequired)
	require.Nil(t, byEmail.ResetToken)
	require.Nil(t, byEmail.ResetTokenExpires)
	require.WithinDuration(t, u.TokensValidFrom, byEmail.TokensValidFrom, time.Millisecond)

	byID, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Test", byID.Name)
}

func TestIntegration_SaveUser_DuplicateEmail_CaseInsensitive(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	seedUser(t, st, "dup@example.com")

	now := time.Now().UTC()
	err := st.SaveUser(context.Background(), &models.User{
		ID:              uuid.New(),
		Email:           "DUP@example.com",
		PasswordHash:    "hash",
		Role:            models.RoleUser,
		TokensValidFrom: now,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestIntegration_UserLookup_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.UserByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.UserByEmail(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_ListUsers_OrderedByCreation(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	first := seedUser(t, st, "first@example.com")
	second := seedUser(t, st, "second@example.com")

	users, err := st.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, first.ID, users[0].ID)
	require.Equal(t, second.ID, users[1].ID)
}

func TestIntegration_UpdateUser(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := seedUser(t, st, "old@example.com")
	seedUser(t, st, "taken@example.com")

	u.Email = "new@example.com"
	u.Name = "Renamed"
	u.Role = models.RoleAdmin
	u.UpdatedAt = time.Now().UTC()
	require.NoError(t, st.UpdateUser(ctx, u))

	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new@example.com", got.Email)
	require.Equal(t, "Renamed", got.Name)
	require.Equal(t, models.RoleAdmin, got.Role)

	u.Email = "taken@example.com"
	require.ErrorIs(t, st.UpdateUser(ctx, u), storage.ErrAlreadyExists)

	ghost := *u
	ghost.ID = uuid.New()
	ghost.Email = "ghost@example.com"
	require.ErrorIs(t, st.UpdateUser(ctx, &ghost), storage.ErrNotFound)
}

func TestIntegration_ResetToken_And_UpdatePassword_ClearsIt(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := seedUser(t, st, "reset@example.com")

	expires := time.Now().UTC().Add(time.Hour)
	require.NoError(t, st.SetResetToken(ctx, u.ID, "reset-jwt", expires))

	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ResetToken)
	require.Equal(t, "reset-jwt", *got.ResetToken)
	require.NotNil(t, got.ResetTokenExpires)
	require.WithinDuration(t, expires, *got.ResetTokenExpires, time.Millisecond)

	require.NoError(t, st.UpdatePassword(ctx, u.ID, "new-hash"))

	got, err = st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)
	require.Nil(t, got.ResetToken)
	require.Nil(t, got.ResetTokenExpires)
	require.False(t, got.PasswordChangeRequired)

	require.ErrorIs(t, st.UpdatePassword(ctx, uuid.New(), "x"), storage.ErrNotFound)
}

func TestIntegration_ConsumeResetToken(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := seedUser(t, st, "consume@example.com")

	require.NoError(t, st.ReplaceRefreshTokens(ctx, newRefresh(u.ID, time.Hour)))
	require.NoError(t, st.SetResetToken(ctx, u.ID, "reset-jwt", time.Now().UTC().Add(time.Hour)))

	// Чужой токен ничего не меняет.
	require.ErrorIs(t, st.ConsumeResetToken(ctx, u.ID, "other-jwt", "new-hash"), storage.ErrNotFound)

	require.NoError(t, st.ConsumeResetToken(ctx, u.ID, "reset-jwt", "new-hash"))

	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)
	require.Nil(t, got.ResetToken)
	require.Nil(t, got.ResetTokenExpires)

	tokens, err := st.RefreshTokensByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, tokens)

	// Повторное погашение.
	require.ErrorIs(t, st.ConsumeResetToken(ctx, u.ID, "reset-jwt", "again"), storage.ErrNotFound)
}

func TestIntegration_ConsumeResetToken_Expired(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := seedUser(t, st, "stale@example.com")

	require.NoError(t, st.ReplaceRefreshTokens(ctx, newRefresh(u.ID, time.Hour)))
	require.NoError(t, st.SetResetToken(ctx, u.ID, "reset-jwt", time.Now().UTC().Add(-time.Minute)))

	require.ErrorIs(t, st.ConsumeResetToken(ctx, u.ID, "reset-jwt", "new-hash"), storage.ErrNotFound)

	// Откат: сессии и пароль не тронуты.
	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.PasswordHash, got.PasswordHash)

	tokens, err := st.RefreshTokensByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
}

// TestIntegration_ConsumeResetToken_ConcurrentSingleWinner — из N параллельных
// сбросов одним токеном проходит ровно один.
func TestIntegration_ConsumeResetToken_ConcurrentSingleWinner(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := seedUser(t, st, "reset-race@example.com")

	require.NoError(t, st.SetResetToken(ctx, u.ID, "reset-jwt", time.Now().UTC().Add(time.Hour)))

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hash := fmt.Sprintf("hash-%d", i)
			if err := st.ConsumeResetToken(ctx, u.ID, "reset-jwt", hash); err == nil {
				mu.Lock()
				winners = append(winners, hash)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, winners, 1)

	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, winners[0], got.PasswordHash)
}

func TestIntegration_SetTokensValidFrom(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := seedUser(t, st, "global@example.com")

	marker := time.Now().UTC()
	require.NoError(t, st.SetTokensValidFrom(ctx, u.ID, marker))

	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.WithinDuration(t, marker, got.TokensValidFrom, time.Microsecond)

	require.ErrorIs(t, st.SetTokensValidFrom(ctx, uuid.New(), marker), storage.ErrNotFound)
}

func TestIntegration_DeleteUser_CascadesSessions(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := seedUser(t, st, "bye@example.com")
	require.NoError(t, st.ReplaceRefreshTokens(ctx, newRefresh(u.ID, time.Hour)))

	require.NoError(t, st.DeleteUser(ctx, u.ID))

	_, err := st.UserByID(ctx, u.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	tokens, err := st.RefreshTokensByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, tokens)

	require.ErrorIs(t, st.DeleteUser(ctx, u.ID), storage.ErrNotFound)
}

func TestIntegration_UserByID_ContextCanceled(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.UserByID(ctx, uuid.New())
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}
