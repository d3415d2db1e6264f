package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"madischedule-backend/internal/components/assert"

	"github.com/jordan-wright/email"
)

// Notifier tells an operator that something needs their attention.
//
// note: fault injection point
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(context.Context, string, string) error {
	return nil
}

type SmtpConfig struct {
	Server   string   `json:"server"`
	Port     int      `json:"port" validate:"omitempty,gt=0,lte=65535"`
	Address  string   `json:"address" validate:"omitempty,email"`
	Password string   `json:"password"`
	To       []string `json:"to" validate:"dive,email"`
}

// Enabled reports whether enough is configured to send mail.
func (c SmtpConfig) Enabled() bool {
	return c.Server != "" && c.Address != "" && len(c.To) > 0
}

type sendFunc = func(mail *email.Email, addr string, auth smtp.Auth) error

func send(mail *email.Email, addr string, auth smtp.Auth) error {
	return mail.Send(addr, auth)
}

// Email sends notifications as plain text mail over smtp.
type Email struct {
	config SmtpConfig
	send   sendFunc
}

func NewEmail(config SmtpConfig) Email {
	assert.NotEmptyStr(config.Server, "smtp server")
	assert.NotEmptyStr(config.Address, "sender address")

	if config.Port == 0 {
		config.Port = 587
	}
	return Email{
		config: config,
		send:   send,
	}
}

func (e Email) Notify(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("MADI Schedule <%s>", e.config.Address)
	mail.To = e.config.To
	mail.Subject = subject
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", e.config.Server, e.config.Port)
	err := e.send(
		mail,
		addr,
		smtp.PlainAuth("", e.config.Address, e.config.Password, e.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = e.send(mail, addr, nil)
	}
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

// FromConfig returns an Email notifier when smtp is configured and Nop
// otherwise.
func FromConfig(config SmtpConfig) Notifier {
	if !config.Enabled() {
		return Nop{}
	}
	return NewEmail(config)
}
