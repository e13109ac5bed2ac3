// Package mail renders and delivers outbound email. Delivery runs on a
// background dispatcher so requests never wait on SMTP.
package mail

import (
	"bytes"
	"context"

	gomail "github.com/wneessen/go-mail"
)

// Message is a fully rendered outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string

	// InlineLogo, when non-empty, is attached inline with Content-ID "logo"
	// so templates can reference it as cid:logo.
	InlineLogo []byte
}

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig carries connection settings for the SMTP mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers mail over SMTP using go-mail.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	message := gomail.NewMsg()
	if err := message.From(m.cfg.From); err != nil {
		return err
	}
	if err := message.To(msg.To); err != nil {
		return err
	}
	message.Subject(msg.Subject)
	message.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)

	if len(msg.InlineLogo) > 0 {
		err := message.EmbedReader("logo.png", bytes.NewReader(msg.InlineLogo),
			gomail.WithFileContentID("logo"),
			gomail.WithFileContentType(gomail.ContentType("image/png")),
		)
		if err != nil {
			return err
		}
	}

	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.Username),
		gomail.WithPassword(m.cfg.Password),
	}

	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return err
	}

	return client.DialAndSendWithContext(ctx, message)
}
