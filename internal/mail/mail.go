// Package mail delivers notification email to the shop.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// Message is one outbound notification.
type Message struct {
	Subject     string
	HTMLBody    string
	Attachments []string // absolute paths of files to attach
	ExtraTo     []string // recipients beyond the configured distribution list
}

// Sender delivers a message. The delivery pipeline depends on this
// interface so tests can capture outbound mail.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends through an SMTP relay using go-mail.
type SMTPSender struct {
	host string
	port int
	from string
	to   []string
	user string
	pass string
}

var _ Sender = (*SMTPSender)(nil)

// NewSMTPSender builds a sender for the given relay. user and pass may be
// empty for an open internal relay.
func NewSMTPSender(host string, port int, from string, to []string, user, pass string) *SMTPSender {
	return &SMTPSender{host: host, port: port, from: from, to: to, user: user, pass: pass}
}

// Send composes and delivers one message.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("mail: set from: %w", err)
	}
	if err := m.To(append(append([]string{}, s.to...), msg.ExtraTo...)...); err != nil {
		return fmt.Errorf("mail: set recipients: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
	for _, p := range msg.Attachments {
		m.AttachFile(p)
	}

	opts := []gomail.Option{gomail.WithPort(s.port)}
	if s.user != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.user),
			gomail.WithPassword(s.pass))
	}
	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("mail: create client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	return nil
}
