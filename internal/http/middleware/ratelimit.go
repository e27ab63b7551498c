package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	apierrors "github.com/pribylovaa/go-shop-auth/internal/errors"
	logctx "github.com/pribylovaa/go-shop-auth/internal/pkg/log"
	"github.com/pribylovaa/go-shop-auth/internal/ratelimit"
)

// Limiter решает, можно ли пропустить запрос с ключом key.
type Limiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Decision, error)
}

// RateLimit ограничивает частоту запросов по паре (IP клиента, маршрут).
// nil-лимитер делает мидлвар no-op. Ошибки лимитера не блокируют запрос.
func RateLimit(l Limiter, route string) Middleware {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r) + ":" + route

			d, err := l.Allow(r.Context(), key)
			if err != nil {
				logctx.From(r.Context()).Warn("ratelimit_unavailable",
					slog.String("route", route),
					slog.String("err", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))

			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))

				logctx.From(r.Context()).Info("ratelimit_block",
					slog.String("route", route),
					slog.Duration("retry_after", time.Duration(secs)*time.Second),
				)
				apierrors.WriteError(w, r, apierrors.ErrTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP берёт хост из RemoteAddr. Заголовки прокси разбирает
// chi middleware.RealIP выше по цепочке.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}
