// Package mailer delivers transactional email. Messages are queued on a
// Dispatcher and sent by background workers through one of the transports
// (SMTP, MailerSend or the log transport used in development).
package mailer

import (
	"booknet/internal/config"
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Message is one outgoing email
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends a single message synchronously
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of delivering them
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	logrus.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("mail (log transport): " + msg.Text)
	return nil
}

// New builds the transport selected by MAIL_DRIVER
func New(cfg *config.Config) (Mailer, error) {
	switch strings.ToLower(cfg.Mail.Driver) {
	case "", "log":
		return LogMailer{}, nil
	case "smtp":
		return NewSMTPMailer(cfg.SMTP, cfg.Mail.From, cfg.Mail.FromName)
	case "mailersend":
		return NewMailerSendMailer(cfg.Mail.APIKey, cfg.Mail.FromName, cfg.Mail.From)
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Mail.Driver)
	}
}
