package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"mailproof/config"
)

// Mailer sends test emails over SMTP. One attempt per call; the caller owns
// any failure handling.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(cfg config.SMTPConfig) *Mailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
	}
}

func (m *Mailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	// gomail emits text/plain with charset=UTF-8
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
