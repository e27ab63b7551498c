package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pribylovaa/go-shop-auth/internal/http/handlers"
	"github.com/pribylovaa/go-shop-auth/internal/http/middleware"
)

// Service — всё, что роутеру нужно от сервисного слоя.
type Service interface {
	handlers.Service
	middleware.Authenticator
	middleware.Sweeper
}

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger      *slog.Logger
	Timeout     time.Duration
	BasePath    string // например, "/api"; если пустой — роуты регистрируются на корне.
	CORSOrigins []string
	Cookie      handlers.CookieConfig
	// Limiter — nil отключает rate limiting.
	Limiter middleware.Limiter
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		chimw.RealIP,                    // IP клиента из X-Forwarded-For / X-Real-IP
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(),
		cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
			AllowCredentials: true, // refresh-токен ходит в cookie
			MaxAge:           300,
		}),
		middleware.Timeout(opts.Timeout), // общий дедлайн запроса
	)

	h := handlers.New(svc, opts.Cookie)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, svc, Routes(h), opts.Limiter)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, svc, Routes(h), opts.Limiter)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
// Помаршрутная цепочка: RateLimit -> TokenCleanup -> Authenticate ->
// RequirePasswordChanged -> RequireRoles.
func registerRoutes(r chi.Router, svc Service, routes []Route, limiter middleware.Limiter) {
	for _, rt := range routes {
		var mws []middleware.Middleware

		if rt.RateLimited && limiter != nil {
			mws = append(mws, middleware.RateLimit(limiter, rt.Pattern))
		}
		if rt.Cleanup {
			mws = append(mws, middleware.TokenCleanup(svc))
		}
		if rt.Auth {
			mws = append(mws, middleware.Authenticate(svc, rt.AllowPasswordChange))
			if !rt.AllowPasswordChange {
				mws = append(mws, middleware.RequirePasswordChanged())
			}
		}
		if len(rt.Roles) > 0 {
			mws = append(mws, middleware.RequireRoles(rt.Roles...))
		}

		r.Method(rt.Method, rt.Pattern, middleware.Chain(rt.Handler, mws...))
	}
}
