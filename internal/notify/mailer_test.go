package notify

import (
	"context"
	"errors"
	"testing"

	"tombola/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func newTestMailer(force bool) (*Mailer, *fakeDialer) {
	m := NewMailer(config.MailConfig{From: "santa@example.com", Bcc: "archive@example.com"}, force)
	d := &fakeDialer{}
	m.dialer = d
	return m, d
}

func TestMailerPrepare(t *testing.T) {
	m, _ := newTestMailer(false)

	msg, err := m.prepare(Message{To: "alice@example.com", Markdown: "Hello **Alice**"})
	require.NoError(t, err)

	assert.Equal(t, "santa@example.com", msg.From)
	assert.Equal(t, "archive@example.com", msg.Bcc)
	assert.Equal(t, "Hello **Alice**", msg.Text)
	assert.Equal(t, "<p>Hello <strong>Alice</strong></p>\n", msg.HTML)

	msg, err = m.prepare(Message{From: "elf@example.com", Text: "plain"})
	require.NoError(t, err)
	assert.Equal(t, "elf@example.com", msg.From)
	assert.Equal(t, "plain", msg.Text)
	assert.Empty(t, msg.HTML)
}

func TestMailerDryRun(t *testing.T) {
	m, d := newTestMailer(false)

	require.NoError(t, m.SendMail(context.Background(), Message{To: "alice@example.com", Subject: "Hi", Text: "x"}))
	assert.Empty(t, d.sent)
}

func TestMailerSend(t *testing.T) {
	m, d := newTestMailer(true)

	err := m.SendMail(context.Background(), Message{To: "alice@example.com", Subject: "Hi", Markdown: "*x*"})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	sent := d.sent[0]
	assert.Equal(t, []string{"santa@example.com"}, sent.GetHeader("From"))
	assert.Equal(t, []string{"alice@example.com"}, sent.GetHeader("To"))
	assert.Equal(t, []string{"archive@example.com"}, sent.GetHeader("Bcc"))
	assert.Equal(t, []string{"Hi"}, sent.GetHeader("Subject"))
}

func TestMailerErrors(t *testing.T) {
	m, d := newTestMailer(true)

	assert.Error(t, m.SendMail(context.Background(), Message{Subject: "no recipient"}))

	d.err = errors.New("connection refused")
	err := m.SendMail(context.Background(), Message{To: "alice@example.com"})
	assert.ErrorContains(t, err, "connection refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.err = nil
	assert.ErrorIs(t, m.SendMail(ctx, Message{To: "alice@example.com"}), context.Canceled)
	assert.Empty(t, d.sent)
}
