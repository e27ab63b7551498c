package http

import (
	"net/http"

	"github.com/pribylovaa/go-shop-auth/internal/http/handlers"
	"github.com/pribylovaa/go-shop-auth/internal/models"
)

// Route — запись таблицы возможностей: что нужно маршруту до вызова хендлера.
//
//   - Auth — требуется Bearer access-токен;
//   - AllowPasswordChange — маршрут доступен пользователю с флагом
//     обязательной смены пароля;
//   - Roles — допустимые роли (пусто — любая);
//   - Cleanup — перед хендлером удаляются просроченные refresh-сессии;
//   - RateLimited — запросы ограничиваются по IP клиента.
type Route struct {
	Method              string
	Pattern             string
	Handler             http.HandlerFunc
	Auth                bool
	AllowPasswordChange bool
	Roles               []models.Role
	Cleanup             bool
	RateLimited         bool
}

// Routes возвращает таблицу всех REST-эндпойнтов.
func Routes(h *handlers.Handlers) []Route {
	admin := []models.Role{models.RoleAdmin}

	return []Route{
		// auth
		{Method: http.MethodPost, Pattern: "/auth/register", Handler: h.Register, Cleanup: true, RateLimited: true},
		{Method: http.MethodPost, Pattern: "/auth/login", Handler: h.Login, Cleanup: true, RateLimited: true},
		{Method: http.MethodPost, Pattern: "/auth/refresh", Handler: h.Refresh, Cleanup: true},
		{Method: http.MethodPost, Pattern: "/auth/logout", Handler: h.Logout, Auth: true, AllowPasswordChange: true},
		{Method: http.MethodDelete, Pattern: "/auth/logout/all", Handler: h.LogoutAll, Auth: true},
		{Method: http.MethodPost, Pattern: "/auth/forgot-password", Handler: h.ForgotPassword, RateLimited: true},
		{Method: http.MethodPost, Pattern: "/auth/reset-password", Handler: h.ResetPassword, RateLimited: true},

		// users: self
		{Method: http.MethodGet, Pattern: "/users/me", Handler: h.Me, Auth: true},
		{Method: http.MethodPatch, Pattern: "/users/me", Handler: h.UpdateMe, Auth: true},
		{Method: http.MethodDelete, Pattern: "/users/me", Handler: h.DeleteMe, Auth: true},
		{Method: http.MethodPatch, Pattern: "/users/me/password", Handler: h.ChangePassword, Auth: true, AllowPasswordChange: true},

		// users: admin
		{Method: http.MethodGet, Pattern: "/users", Handler: h.ListUsers, Auth: true, Roles: admin},
		{Method: http.MethodPost, Pattern: "/users/admin", Handler: h.CreateAdmin, Auth: true, Roles: admin},
		{Method: http.MethodGet, Pattern: "/users/{id}", Handler: h.GetUser, Auth: true, Roles: admin},
		{Method: http.MethodPatch, Pattern: "/users/{id}", Handler: h.UpdateUser, Auth: true, Roles: admin},
		{Method: http.MethodDelete, Pattern: "/users/{id}", Handler: h.DeleteUser, Auth: true, Roles: admin},
	}
}
