package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	logctx "github.com/pribylovaa/go-shop-auth/internal/pkg/log"
)

// errRequestTimeout — причина отмены контекста по дедлайну запроса.
var errRequestTimeout = errors.New("request timeout")

// Timeout ограничивает время обработки запроса: bcrypt, БД и Redis получают
// контекст с дедлайном. Уже заданный дедлайн сохраняется, d <= 0 отключает
// мидлвар. Если дедлайн истёк во время обработки, пишется request_timeout.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeoutCause(r.Context(), d, errRequestTimeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))

			if errors.Is(context.Cause(ctx), errRequestTimeout) {
				logctx.From(ctx).Warn("request_timeout",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Duration("limit", d),
				)
			}
		})
	}
}
