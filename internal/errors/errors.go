// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход принимает ошибку сервисного слоя (сентинелы internal/service),
// на выход даёт HTTP-статус, короткий стабильный код и безопасное сообщение.
//
// Неизвестные ошибки превращаются в 500/internal без утечки деталей;
// подробности остаются в логах.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/pribylovaa/go-shop-auth/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// ErrTooManyRequests — лимит запросов исчерпан (rate limiting).
var ErrTooManyRequests = stderrors.New("too many requests")

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

type mapping struct {
	target error
	status int
	code   string
}

// table проверяется по порядку через errors.Is; сообщение берётся из сентинела.
var table = []mapping{
	{service.ErrNoToken, http.StatusUnauthorized, "unauthenticated"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "unauthenticated"},
	{service.ErrTokenExpired, http.StatusUnauthorized, "token_expired"},
	{service.ErrTokenBlacklisted, http.StatusUnauthorized, "token_revoked"},
	{service.ErrTokenInvalidated, http.StatusUnauthorized, "token_revoked"},
	{service.ErrTokenRevoked, http.StatusUnauthorized, "token_revoked"},
	{service.ErrUnknownSubject, http.StatusUnauthorized, "unauthenticated"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{service.ErrInvalidResetToken, http.StatusUnauthorized, "invalid_reset_token"},

	{service.ErrPasswordChangeRequired, http.StatusForbidden, "password_change_required"},
	{service.ErrForbidden, http.StatusForbidden, "permission_denied"},

	{service.ErrUserNotFound, http.StatusNotFound, "not_found"},
	{service.ErrEmailTaken, http.StatusConflict, "already_exists"},

	{service.ErrPasswordMismatch, http.StatusBadRequest, "invalid_argument"},
	{service.ErrInvalidEmail, http.StatusBadRequest, "invalid_argument"},
	{service.ErrEmptyPassword, http.StatusBadRequest, "invalid_argument"},
	{service.ErrWeakPassword, http.StatusBadRequest, "invalid_argument"},
	{service.ErrPasswordTooLong, http.StatusBadRequest, "invalid_argument"},
	{service.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},

	{ErrTooManyRequests, http.StatusTooManyRequests, "resource_exhausted"},
}

// ToHTTP конвертирует ошибку в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil - это программная ошибка вызова: возвращаем 500/internal,
//     чтобы не послать "200 OK" с телом ошибки и не маскировать баг.
//   - сентинел из table - его статус, код и текст;
//   - context.Canceled - 499, context.DeadlineExceeded - 504;
//   - прочее - 500/internal.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return internal()
	}

	for _, m := range table {
		if stderrors.Is(err, m.target) {
			return m.status, ErrorResponse{
				Error: APIError{
					Code:    m.code,
					Message: m.target.Error(),
				},
			}
		}
	}

	switch {
	case stderrors.Is(err, context.Canceled):
		return StatusClientClosedRequest, ErrorResponse{
			Error: APIError{Code: "canceled", Message: "canceled"},
		}
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{
			Error: APIError{Code: "deadline_exceeded", Message: "deadline exceeded"},
		}
	}

	return internal()
}

func internal() (int, ErrorResponse) {
	return http.StatusInternalServerError, ErrorResponse{
		Error: APIError{
			Code:    "internal",
			Message: "internal error",
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров и мидлваров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
