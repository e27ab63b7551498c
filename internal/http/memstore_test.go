package http

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-shop-auth/internal/models"
	"github.com/pribylovaa/go-shop-auth/internal/storage"
)

// memStore — in-memory реализация storage.Storage и storage.BlacklistStorage
// для сквозных тестов роутера. Записи копируются на входе и выходе.
type memStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]models.User
	refresh   map[uuid.UUID]models.RefreshToken
	blacklist map[string]time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[uuid.UUID]models.User{},
		refresh:   map[uuid.UUID]models.RefreshToken{},
		blacklist: map[string]time.Time{},
	}
}

var (
	_ storage.Storage          = (*memStore)(nil)
	_ storage.BlacklistStorage = (*memStore)(nil)
)

func (m *memStore) emailTaken(email string, except uuid.UUID) bool {
	for id, u := range m.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (m *memStore) SaveUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTaken(user.Email, uuid.Nil) {
		return storage.ErrAlreadyExists
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) UserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) ListUsers(context.Context) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		cp := u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) UpdateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.users[user.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if m.emailTaken(user.Email, user.ID) {
		return storage.ErrAlreadyExists
	}

	cur.Email, cur.Name, cur.Role = user.Email, user.Name, user.Role
	cur.UpdatedAt = time.Now().UTC()
	m.users[user.ID] = cur
	return nil
}

func (m *memStore) update(id uuid.UUID, fn func(u *models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return nil
}

func (m *memStore) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	return m.update(id, func(u *models.User) {
		u.PasswordHash = hash
		u.PasswordChangeRequired = false
		u.ResetToken, u.ResetTokenExpires = nil, nil
	})
}

func (m *memStore) ConsumeResetToken(_ context.Context, id uuid.UUID, token, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok || u.ResetToken == nil || *u.ResetToken != token ||
		u.ResetTokenExpires == nil || !time.Now().Before(*u.ResetTokenExpires) {
		return storage.ErrNotFound
	}

	u.PasswordHash = hash
	u.PasswordChangeRequired = false
	u.ResetToken, u.ResetTokenExpires = nil, nil
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	m.dropUserTokens(id)
	return nil
}

func (m *memStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.users, id)
	m.dropUserTokens(id)
	return nil
}

func (m *memStore) SetTokensValidFrom(_ context.Context, id uuid.UUID, t time.Time) error {
	return m.update(id, func(u *models.User) { u.TokensValidFrom = t })
}

func (m *memStore) SetResetToken(_ context.Context, id uuid.UUID, token string, expires time.Time) error {
	return m.update(id, func(u *models.User) {
		u.ResetToken, u.ResetTokenExpires = &token, &expires
	})
}

func (m *memStore) dropUserTokens(userID uuid.UUID) int64 {
	var n int64
	for id, t := range m.refresh {
		if t.UserID == userID {
			delete(m.refresh, id)
			n++
		}
	}
	return n
}

func (m *memStore) ReplaceRefreshTokens(_ context.Context, token *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dropUserTokens(token.UserID)
	m.refresh[token.ID] = *token
	return nil
}

func (m *memStore) RotateRefreshToken(_ context.Context, oldID uuid.UUID, token *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.refresh[oldID]; !ok {
		return storage.ErrNotFound
	}
	m.dropUserTokens(token.UserID)
	m.refresh[token.ID] = *token
	return nil
}

func (m *memStore) RefreshTokensByUser(_ context.Context, userID uuid.UUID) ([]*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.RefreshToken
	for _, t := range m.refresh {
		if t.UserID == userID {
			cp := t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) DeleteRefreshToken(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.refresh[id]
	if !ok || t.UserID != userID {
		return storage.ErrNotFound
	}
	delete(m.refresh, id)
	return nil
}

func (m *memStore) DeleteUserRefreshTokens(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.dropUserTokens(userID), nil
}

func (m *memStore) DeleteExpiredRefreshTokens(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, t := range m.refresh {
		if t.Expired(now) {
			delete(m.refresh, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) refreshCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.refresh)
}

func (m *memStore) Close() {}

func (m *memStore) BlacklistToken(_ context.Context, jti string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blacklist[jti] = expiresAt
	return nil
}

func (m *memStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.blacklist[jti]
	return ok, nil
}

func (m *memStore) DeleteExpiredBlacklist(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for jti, exp := range m.blacklist {
		if !now.Before(exp) {
			delete(m.blacklist, jti)
			n++
		}
	}
	return n, nil
}
