package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"tombola/internal/config"

	"github.com/google/logger"
	"github.com/yuin/goldmark"
	"gopkg.in/gomail.v2"
)

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends rendered messages over SMTP. Unless forced it only logs what
// it would have sent.
type Mailer struct {
	cfg      config.MailConfig
	dialer   mailDialer
	markdown goldmark.Markdown
	force    bool
}

// NewMailer creates a Mailer from the mail settings.
func NewMailer(cfg config.MailConfig, force bool) *Mailer {
	return &Mailer{
		cfg:      cfg,
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		markdown: goldmark.New(),
		force:    force,
	}
}

// prepare fills configured defaults and renders the markdown part.
func (m *Mailer) prepare(msg Message) (Message, error) {
	if msg.From == "" {
		msg.From = m.cfg.From
	}
	if msg.Bcc == "" {
		msg.Bcc = m.cfg.Bcc
	}

	if msg.Markdown != "" {
		var buf bytes.Buffer
		if err := m.markdown.Convert([]byte(msg.Markdown), &buf); err != nil {
			return msg, fmt.Errorf("render markdown: %w", err)
		}
		msg.Text = msg.Markdown
		msg.HTML = buf.String()
	}
	return msg, nil
}

// SendMail sends msg, or logs it in dry-run mode.
func (m *Mailer) SendMail(ctx context.Context, msg Message) error {
	msg, err := m.prepare(msg)
	if err != nil {
		return err
	}
	if msg.To == "" {
		return errors.New("send mail: no recipient")
	}

	if !m.force {
		logger.Infof("would have sent the following email to %s\nSubject: %s\n---\n%s\n---", msg.To, msg.Subject, msg.Text)
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", msg.From)
	gm.SetHeader("To", msg.To)
	if msg.Cc != "" {
		gm.SetHeader("Cc", msg.Cc)
	}
	if msg.Bcc != "" {
		gm.SetHeader("Bcc", msg.Bcc)
	}
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}
