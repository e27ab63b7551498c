package middleware

import (
	"context"
	"log/slog"
	"net/http"

	logctx "github.com/pribylovaa/go-shop-auth/internal/pkg/log"
)

// Sweeper удаляет просроченные refresh-сессии.
type Sweeper interface {
	SweepExpiredRefreshTokens(ctx context.Context) (int64, error)
}

// TokenCleanup перед обработкой запроса удаляет просроченные refresh-сессии.
// Ошибка очистки логируется и запрос не прерывает.
func TokenCleanup(s Sweeper) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if n, err := s.SweepExpiredRefreshTokens(r.Context()); err != nil {
				logctx.From(r.Context()).Warn("token_cleanup_failed",
					slog.String("err", err.Error()),
				)
			} else if n > 0 {
				logctx.From(r.Context()).Debug("token_cleanup",
					slog.Int64("removed", n),
				)
			}

			next.ServeHTTP(w, r)
		})
	}
}
