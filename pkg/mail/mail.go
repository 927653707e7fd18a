package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/taranpreet09/Event-Management-System/pkg/log"
)

// Payload is the job shape on queue:emails.
type Payload struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Sender delivers one email. The actual mail service is an external
// collaborator; implementations here are a plain SMTP relay and a logging
// stand-in.
type Sender interface {
	Send(ctx context.Context, p Payload) error
}

// SMTPSender sends through a configured SMTP relay.
type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPSender(host string, port int, user, password, from string) *SMTPSender {
	var a smtp.Auth
	if user != "" {
		a = smtp.PlainAuth("", user, password, host)
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", host, port),
		auth: a,
		from: from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, p Payload) error {
	body := p.HTML
	contentType := "text/html; charset=\"UTF-8\""
	if body == "" {
		body = p.Text
		contentType = "text/plain; charset=\"UTF-8\""
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", p.Email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", p.Subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\nContent-Type: %s\r\n\r\n", contentType)
	msg.WriteString(body)

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{p.Email}, []byte(msg.String())); err != nil {
		return fmt.Errorf("sending email to %s: %w", p.Email, err)
	}
	return nil
}

// LogSender logs instead of sending. Used when no SMTP relay is configured.
type LogSender struct {
	logger *log.Logger
}

func NewLogSender() *LogSender {
	return &LogSender{logger: log.ForService("email")}
}

func (s *LogSender) Send(ctx context.Context, p Payload) error {
	s.logger.Infof("email (not sent, no relay configured) to=%s subject=%q", p.Email, p.Subject)
	return nil
}
