package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-shop-auth/internal/config"
	"github.com/pribylovaa/go-shop-auth/internal/models"
	"github.com/pribylovaa/go-shop-auth/mocks"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		AccessSecret:    "unit-access-secret",
		RefreshSecret:   "unit-refresh-secret",
		ResetSecret:     "unit-reset-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		ResetTokenTTL:   time.Hour,
		Issuer:          "shop-auth",
		BcryptCost:      bcrypt.MinCost,
	}
}

type deps struct {
	st   *mocks.MockStorage
	bl   *mocks.MockBlacklistStorage
	mail *mocks.MockMailer
}

func newSvc(t *testing.T) (*Service, deps) {
	t.Helper()

	ctrl := gomock.NewController(t)
	d := deps{
		st:   mocks.NewMockStorage(ctrl),
		bl:   mocks.NewMockBlacklistStorage(ctrl),
		mail: mocks.NewMockMailer(ctrl),
	}

	return New(d.st, d.bl, d.mail, testCfg()), d
}

func mustHashPW(t *testing.T, svc *Service, pw string) string {
	t.Helper()

	h, err := svc.hashPassword(pw)
	require.NoError(t, err)
	return h
}

// testUser — пользователь с паролем pw и маркером в прошлом.
func testUser(t *testing.T, svc *Service, pw string) *models.User {
	t.Helper()

	now := time.Now().UTC()
	return &models.User{
		ID:              uuid.New(),
		Email:           "user@example.com",
		Name:            "User",
		PasswordHash:    mustHashPW(t, svc, pw),
		Role:            models.RoleUser,
		TokensValidFrom: now.Add(-time.Hour),
		CreatedAt:       now.Add(-time.Hour),
		UpdatedAt:       now.Add(-time.Hour),
	}
}

// issue выпускает пару токенов и соответствующую запись refresh-сессии.
func issue(t *testing.T, svc *Service, user *models.User) (*models.TokenPair, *models.RefreshToken) {
	t.Helper()

	now := time.Now().UTC()
	pair, err := svc.issueTokens(context.Background(), user, now)
	require.NoError(t, err)

	rec, err := svc.newRefreshRecord(user.ID, pair, now)
	require.NoError(t, err)

	return pair, rec
}
