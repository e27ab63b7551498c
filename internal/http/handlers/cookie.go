package handlers

import (
	"net/http"
	"time"
)

// RefreshCookie — имя http-only cookie с refresh-токеном.
const RefreshCookie = "refresh_token"

// CookieConfig — параметры refresh-cookie.
// Secure включается в проде; MaxAge совпадает со сроком refresh-токена.
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

func (h *Handlers) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handlers) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// refreshFromCookie возвращает значение refresh-cookie или пустую строку.
func refreshFromCookie(r *http.Request) string {
	c, err := r.Cookie(RefreshCookie)
	if err != nil {
		return ""
	}
	return c.Value
}
