package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/require"
)

func TestFromConfig(t *testing.T) {
	require.IsType(t, Nop{}, FromConfig(SmtpConfig{}))
	require.IsType(t, Nop{}, FromConfig(SmtpConfig{Server: "smtp.example.com", Address: "bot@example.com"}))

	n := FromConfig(SmtpConfig{
		Server:  "smtp.example.com",
		Address: "bot@example.com",
		To:      []string{"ops@example.com"},
	})
	require.IsType(t, Email{}, n)
	require.Equal(t, 587, n.(Email).config.Port)
}

func TestEmailNotify(t *testing.T) {
	var sent []*email.Email
	var addrs []string
	var auths []smtp.Auth

	notifier := NewEmail(SmtpConfig{
		Server:   "smtp.example.com",
		Port:     25,
		Address:  "bot@example.com",
		Password: "secret",
		To:       []string{"ops@example.com"},
	})
	notifier.send = func(mail *email.Email, addr string, auth smtp.Auth) error {
		sent = append(sent, mail)
		addrs = append(addrs, addr)
		auths = append(auths, auth)
		if auth != nil {
			return errors.New("smtp: server doesn't support AUTH")
		}
		return nil
	}

	err := notifier.Notify(context.Background(), "schedule scrape failed", "open page: timeout")
	require.NoError(t, err)

	require.Len(t, sent, 2)
	require.NotNil(t, auths[0])
	require.Nil(t, auths[1])
	require.Equal(t, []string{"smtp.example.com:25", "smtp.example.com:25"}, addrs)
	require.Equal(t, "MADI Schedule <bot@example.com>", sent[1].From)
	require.Equal(t, []string{"ops@example.com"}, sent[1].To)
	require.Equal(t, "schedule scrape failed", sent[1].Subject)
	require.Equal(t, "open page: timeout", string(sent[1].Text))
}

func TestEmailNotifyError(t *testing.T) {
	notifier := NewEmail(SmtpConfig{Server: "smtp.example.com", Address: "bot@example.com"})
	notifier.send = func(*email.Email, string, smtp.Auth) error {
		return errors.New("connection refused")
	}
	err := notifier.Notify(context.Background(), "subject", "body")
	require.ErrorContains(t, err, "connection refused")
}

func TestNewEmailRequiresServer(t *testing.T) {
	require.Panics(t, func() {
		NewEmail(SmtpConfig{Address: "bot@example.com"})
	})
}
