package services

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"sync"

	"student-connect/internal/config"
)

// Mailer delivers password reset links.
type Mailer interface {
	SendResetEmail(to, link string) error
}

// NewMailer returns an SMTP mailer, or an outbox that only logs when no
// SMTP host is configured.
func NewMailer(cfg *config.ServerConfig) Mailer {
	if cfg.SMTPHost == "" {
		return &Outbox{}
	}
	return NewEmailService(cfg)
}

type EmailService struct {
	cfg *config.ServerConfig
}

func NewEmailService(cfg *config.ServerConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

func (es *EmailService) SendResetEmail(to, link string) error {
	subject := "Reset your Student Connect password"
	body := fmt.Sprintf(`
	<html>
	<body>
		<h2>Password reset</h2>
		<p>Someone asked to reset the password of your Student Connect account. Open the link below to choose a new one:</p>
		<p><a href="%s">%s</a></p>
		<p>The link expires soon. If you didn't ask for this, ignore this email.</p>
	</body>
	</html>
	`, link, link)

	auth := smtp.PlainAuth("", es.cfg.SMTPUsername, es.cfg.SMTPPassword, es.cfg.SMTPHost)

	headers := [][2]string{
		{"From", es.cfg.EmailFrom},
		{"To", to},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=\"utf-8\""},
	}

	var message strings.Builder
	for _, h := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", h[0], h[1]))
	}
	message.WriteString("\r\n" + body)

	return smtp.SendMail(
		es.cfg.SMTPHost+":"+es.cfg.SMTPPort,
		auth,
		es.cfg.EmailFrom,
		[]string{to},
		[]byte(message.String()),
	)
}

type SentMail struct {
	To   string
	Link string
}

// Outbox keeps reset mails in memory and logs the link.
type Outbox struct {
	mu   sync.Mutex
	sent []SentMail
}

func (o *Outbox) SendResetEmail(to, link string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, SentMail{To: to, Link: link})
	log.Printf("Password reset link for %s: %s", to, link)
	return nil
}

func (o *Outbox) Sent() []SentMail {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]SentMail(nil), o.sent...)
}
