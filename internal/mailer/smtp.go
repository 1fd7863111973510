package mailer

import (
	"booknet/internal/config"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

// SMTPMailer delivers through an SMTP relay
type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

// NewSMTPMailer configures a gomail dialer; encryption is none, ssl or starttls
func NewSMTPMailer(cfg config.SMTPConfig, fromEmail, fromName string) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.Port == 0 || fromEmail == "" {
		return nil, errors.New("SMTP host, port, and sender email must be configured")
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	tlsConfig := &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	switch strings.ToLower(cfg.Encryption) {
	case "ssl":
		dialer.SSL = true
		dialer.TLSConfig = tlsConfig
	case "tls", "starttls":
		dialer.TLSConfig = tlsConfig
	}
	from := fromEmail
	if fromName != "" {
		from = gomail.NewMessage().FormatAddress(fromEmail, fromName)
	}
	return &SMTPMailer{from: from, dialer: dialer}, nil
}

func (s *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("no recipient provided for email")
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	switch {
	case msg.HTML != "":
		m.SetBody("text/html", msg.HTML)
		if msg.Text != "" {
			m.AddAlternative("text/plain", msg.Text)
		}
	case msg.Text != "":
		m.SetBody("text/plain", msg.Text)
	default:
		return errors.New("email body (HTML or Text) must be provided")
	}

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case <-ctx.Done():
		return fmt.Errorf("email sending cancelled or timed out: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}
}
