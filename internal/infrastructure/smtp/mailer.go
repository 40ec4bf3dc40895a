package smtp

import (
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/myvoice974/account-api/internal/config"
)

// Mailer sends emails. Configured reports whether a real delivery backend is
// available; when it is not, callers are expected to fall back to logging.
type Mailer interface {
	SendEmail(to, subject, body string) error
	Configured() bool
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

// NewMailer builds an SMTP mailer. When either credential is missing the
// returned mailer reports Configured() == false and every send is only
// written to the log, which keeps local and dev flows usable without an
// email account.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.SMTPUsername == "" || cfg.SMTPPassword == "" {
		return &logMailer{from: cfg.SMTPFrom}
	}
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) Configured() bool { return true }

func (m *mailer) SendEmail(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}

// logMailer writes outbound mail to the server log instead of delivering it.
type logMailer struct {
	from string
}

func (m *logMailer) Configured() bool { return false }

func (m *logMailer) SendEmail(to, subject, body string) error {
	slog.Info("mail gateway not configured, logging instead", "from", m.from, "to", to, "subject", subject, "body", body)
	return nil
}
