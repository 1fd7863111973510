package mailer

import (
	"booknet/internal/domain"
	"bytes"
	"fmt"
	"html/template"

	"github.com/sirupsen/logrus"
)

// Enqueuer accepts messages for asynchronous delivery
type Enqueuer interface {
	Enqueue(msg Message) bool
}

var (
	welcomeHTML = template.Must(template.New("welcome").Parse(
		`<p>Hi {{.Name}},</p><p>Welcome to BookNet! Your account <b>{{.Username}}</b> is ready.</p>`))
	resetHTML = template.Must(template.New("reset").Parse(
		`<p>Hi {{.Name}},</p><p>You requested a password reset. The link below is valid for one hour.</p>` +
			`<p><a href="{{.Link}}">Reset your password</a></p><p>If you did not request this, ignore this email.</p>`))
	changedHTML = template.Must(template.New("changed").Parse(
		`<p>Hi {{.Name}},</p><p>Your BookNet password was just changed. If this was not you, contact support immediately.</p>`))
)

type templateData struct {
	Name     string
	Username string
	Link     string
}

// Notifier composes the account emails and hands them to the dispatcher
type Notifier struct {
	queue Enqueuer
}

func NewNotifier(queue Enqueuer) *Notifier {
	return &Notifier{queue: queue}
}

// Welcome is sent after registration
func (n *Notifier) Welcome(user *domain.User) {
	data := dataFor(user, "")
	n.send(user, "Welcome to BookNet",
		fmt.Sprintf("Hi %s, welcome to BookNet! Your account %s is ready.", data.Name, user.Username),
		welcomeHTML, data)
}

// PasswordResetLink carries the reset URL
func (n *Notifier) PasswordResetLink(user *domain.User, link string) {
	data := dataFor(user, link)
	n.send(user, "BookNet password reset",
		fmt.Sprintf("Hi %s, reset your password within one hour using this link: %s", data.Name, link),
		resetHTML, data)
}

// PasswordChanged confirms a completed reset
func (n *Notifier) PasswordChanged(user *domain.User) {
	data := dataFor(user, "")
	n.send(user, "Your BookNet password was changed",
		fmt.Sprintf("Hi %s, your BookNet password was just changed.", data.Name),
		changedHTML, data)
}

func dataFor(user *domain.User, link string) templateData {
	name := user.FirstName
	if name == "" {
		name = user.Username
	}
	return templateData{Name: name, Username: user.Username, Link: link}
}

func (n *Notifier) send(user *domain.User, subject, text string, tmpl *template.Template, data templateData) {
	var html bytes.Buffer
	if err := tmpl.Execute(&html, data); err != nil {
		logrus.WithError(err).WithField("template", tmpl.Name()).Error("render mail template")
		html.Reset() // Fall back to the text part
	}
	n.queue.Enqueue(Message{
		To:      user.Email,
		ToName:  user.FirstName + " " + user.LastName,
		Subject: subject,
		Text:    text,
		HTML:    html.String(),
	})
}
