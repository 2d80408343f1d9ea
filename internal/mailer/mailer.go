package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/evrenbal/voicechat/internal/config"
)

// Mailer sends transactional mail (OTP codes, billing receipts, renewal
// reminders). Failures are best-effort for callers; none of them should
// fail a request because a mail bounced.
type Mailer interface {
	Send(to, subject, body string) error
}

// New returns an SMTP mailer, or a log-only mailer when no SMTP host is
// configured (local development).
func New(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		slog.Warn("SMTP_HOST not set, mail will only be logged")
		return &logMailer{}
	}
	return &smtpMailer{
		addr:     cfg.SMTPHost + ":" + cfg.SMTPPort,
		host:     cfg.SMTPHost,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.MailFrom,
	}
}

type smtpMailer struct {
	addr     string
	host     string
	username string
	password string
	from     string
}

func (m *smtpMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.from, to, subject, body)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	if err := smtp.SendMail(m.addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

type logMailer struct{}

func (l *logMailer) Send(to, subject, body string) error {
	slog.Info("mail (not sent)", "to", to, "subject", subject)
	return nil
}
