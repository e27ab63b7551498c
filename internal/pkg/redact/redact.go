// redact маскирует чувствительные данные перед записью в лог:
// e-mail, токены, пароли и идентификаторы токенов.
package redact

import "strings"

// Email маскирует e-mail, оставляя домен.
//
// Правила:
//   - ровно один '@', иначе "***";
//   - локальная часть длиннее 2 рун → первые две руны + "***", иначе "***".
//
// Примеры:
//
//	"foobar@example.com" -> "fo***@example.com"
//	"ab@ex.com"          -> "***@ex.com"
//	"no-at"              -> "***"
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	lr := []rune(local)
	if len(lr) > 2 {
		local = string(lr[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// ID укорачивает идентификатор (jti) до первых 8 символов: этого хватает
// для корреляции записей в логах.
func ID(s string) string {
	if len(s) <= 8 {
		return s
	}

	return s[:8] + "…"
}

// Token возвращает литерал-заглушку для токена в логах.
func Token() string { return "[REDACTED_TOKEN]" }

// Password возвращает литерал-заглушку для пароля в логах.
func Password() string { return "[REDACTED_PASSWORD]" }
