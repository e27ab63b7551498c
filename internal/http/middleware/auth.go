package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/pribylovaa/go-shop-auth/internal/errors"
	"github.com/pribylovaa/go-shop-auth/internal/models"
	logctx "github.com/pribylovaa/go-shop-auth/internal/pkg/log"
	"github.com/pribylovaa/go-shop-auth/internal/service"
)

// Authenticator проверяет access-токен и возвращает сессию.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string, allowPasswordChange bool) (*models.Session, error)
}

type sessionKey struct{}

// WithSession кладёт сессию в контекст.
func WithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom достаёт сессию, положенную Authenticate.
func SessionFrom(ctx context.Context) (*models.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*models.Session)
	return s, ok && s != nil
}

// Authenticate требует Bearer access-токен. allowPasswordChange разрешает
// маршрут пользователю, обязанному сменить пароль. При успехе сессия
// доступна хендлерам через SessionFrom, а user_id добавляется в логгер запроса.
func Authenticate(auth Authenticator, allowPasswordChange bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := auth.Authenticate(r.Context(), bearerToken(r), allowPasswordChange)
			if err != nil {
				logctx.From(r.Context()).Info("auth_rejected",
					slog.String("path", r.URL.Path),
					slog.String("err", err.Error()),
				)
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := WithSession(r.Context(), session)
			ctx = logctx.With(ctx, slog.String("user_id", session.User.ID.String()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken извлекает токен из "Authorization: Bearer <token>".
// Пустая строка означает, что токен не предъявлен.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")

	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}

// RequireRoles пропускает только пользователей с одной из ролей.
// Ставится после Authenticate.
func RequireRoles(roles ...models.Role) Middleware {
	return func(next http.Handler) http.Handler {
		if len(roles) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFrom(r.Context())
			if !ok {
				apierrors.WriteError(w, r, service.ErrNoToken)
				return
			}

			for _, role := range roles {
				if session.User.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			apierrors.WriteError(w, r, service.ErrForbidden)
		})
	}
}

// RequirePasswordChanged не пускает пользователя, обязанного сменить пароль.
// Ставится после Authenticate на маршруты без AllowPasswordChange и
// проверяет флаг уже разрешённой сессии.
func RequirePasswordChanged() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFrom(r.Context())
			if !ok {
				apierrors.WriteError(w, r, service.ErrNoToken)
				return
			}

			if session.User.PasswordChangeRequired {
				apierrors.WriteError(w, r, service.ErrPasswordChangeRequired)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
