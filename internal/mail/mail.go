// mail доставляет письма сброса пароля: SMTP через go-mail
// либо LogSender для окружений без почтового сервера.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/pribylovaa/go-shop-auth/internal/config"
	"github.com/pribylovaa/go-shop-auth/internal/pkg/log"
	"github.com/pribylovaa/go-shop-auth/internal/pkg/redact"
)

// ErrNoHost — SMTP-хост не задан.
var ErrNoHost = errors.New("mail host is not configured")

const resetSubject = "Password reset"

var resetBody = template.Must(template.New("reset").Parse(`<p>You requested a password reset.</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>The link is valid for one hour. If you did not request a reset, ignore this email.</p>
`))

// Sender отправляет письма через SMTP.
type Sender struct {
	client   *gomail.Client
	from     string
	resetURL string
}

// New создаёт SMTP-отправителя. Аутентификация включается, только если задан Username.
func New(cfg config.MailConfig) (*Sender, error) {
	const op = "mail.New"

	if cfg.Host == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoHost)
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Sender{
		client:   client,
		from:     cfg.From,
		resetURL: cfg.ResetURL,
	}, nil
}

// SendPasswordReset отправляет письмо со ссылкой на сброс пароля.
func (s *Sender) SendPasswordReset(ctx context.Context, to, token string) error {
	const op = "mail.Sender.SendPasswordReset"

	msg, err := s.resetMessage(to, token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Debug("reset_mail_delivered",
		slog.String("op", op),
		slog.String("email", redact.Email(to)),
	)

	return nil
}

func (s *Sender) resetMessage(to, token string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return nil, err
	}
	if err := msg.To(to); err != nil {
		return nil, err
	}
	msg.Subject(resetSubject)

	body, err := renderReset(resetLink(s.resetURL, token))
	if err != nil {
		return nil, err
	}
	msg.SetBodyString(gomail.TypeTextHTML, body)

	return msg, nil
}

func renderReset(link string) (string, error) {
	var buf bytes.Buffer
	if err := resetBody.Execute(&buf, struct{ Link string }{Link: link}); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// resetLink собирает ссылку вида <base>/reset-password?token=<token>.
func resetLink(base, token string) string {
	return strings.TrimRight(base, "/") + "/reset-password?" + url.Values{"token": {token}}.Encode()
}

// LogSender не отправляет писем, а только фиксирует событие в логе.
// Используется, когда SMTP не настроен.
type LogSender struct{}

// SendPasswordReset пишет событие в лог и возвращает nil. Сам токен в лог не попадает.
func (LogSender) SendPasswordReset(ctx context.Context, to, _ string) error {
	log.From(ctx).Info("reset_mail_skipped",
		slog.String("email", redact.Email(to)),
		slog.String("token", redact.Token()),
	)

	return nil
}
