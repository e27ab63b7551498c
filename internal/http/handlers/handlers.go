// handlers — REST-хендлеры auth и users поверх service.Service.
// Ошибки сервиса отдаются через apierrors.WriteError без дополнительной обработки.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/go-shop-auth/internal/models"
	"github.com/pribylovaa/go-shop-auth/internal/service"
)

// Service — операции сервиса, нужные HTTP-слою.
type Service interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.AuthResult, error)
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	Refresh(ctx context.Context, raw string) (*models.AuthResult, error)
	Logout(ctx context.Context, session *models.Session, rawRefresh string) error
	LogoutAll(ctx context.Context, userID uuid.UUID) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error

	User(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, in service.UpdateUserInput) (*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, in service.UpdateUserInput) (*models.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, in service.ChangePasswordInput) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	CreateAdmin(ctx context.Context, in service.RegisterInput) (*models.User, error)
}

// Handlers агрегирует зависимости хендлеров.
type Handlers struct {
	svc    Service
	cookie CookieConfig
}

func New(svc Service, cookie CookieConfig) *Handlers {
	return &Handlers{svc: svc, cookie: cookie}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
// Любая ошибка разбора превращается в service.ErrInvalidArgument (400).
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("decode body: %v: %w", err, service.ErrInvalidArgument)
	}
	return nil
}

// pathID разбирает {id} из пути.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("path id: %w", service.ErrInvalidArgument)
	}
	return id, nil
}
