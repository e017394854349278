// Package notifier abstracts outbound email delivery so the queue
// consumer does not care whether messages reach a real mailbox or the
// process log during development.
package notifier

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// Notifier delivers one rendered message to one recipient.
type Notifier interface {
	Send(to, subject, body string) error
}

// ConsoleNotifier logs messages instead of sending them. It is the
// default when no SMTP server is configured.
type ConsoleNotifier struct{}

func NewConsole() *ConsoleNotifier { return &ConsoleNotifier{} }

func (c *ConsoleNotifier) Send(to, subject, body string) error {
	log.Printf("[notify] to=%s subject=%q\n%s", to, subject, body)
	return nil
}

// SMTPNotifier sends mail through a plain-auth SMTP relay. The standard
// library client is sufficient here; delivery is plain text and
// fire-and-forget.
type SMTPNotifier struct {
	host string
	port string
	user string
	pass string
	from string
}

func (s *SMTPNotifier) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		s.from, to, subject, body)
	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	if err := smtp.SendMail(s.host+":"+s.port, auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// NewFromEnv returns an SMTPNotifier when SMTP_HOST is configured and a
// ConsoleNotifier otherwise. Supported variables: SMTP_HOST, SMTP_PORT
// (default 587), SMTP_USER, SMTP_PASS, SMTP_FROM (defaults to SMTP_USER).
func NewFromEnv() Notifier {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return NewConsole()
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	user := os.Getenv("SMTP_USER")
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = user
	}
	return &SMTPNotifier{host: host, port: port, user: user, pass: os.Getenv("SMTP_PASS"), from: from}
}
