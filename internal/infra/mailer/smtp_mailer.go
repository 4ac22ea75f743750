package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"school_backend/internal/domain/importer"
	"school_backend/internal/domain/queue"
)

// SMTPMailer implements the domain Notifier over a plain SMTP submission
// endpoint. Auth is used only when a username is configured.
type SMTPMailer struct {
	addr string // host:port
	from string
	auth smtp.Auth
}

func NewSMTPMailer(addr, from, username, password string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		host := addr
		if h, _, err := net.SplitHostPort(addr); err == nil {
			host = h
		}
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{addr: addr, from: from, auth: auth}
}

// SendWelcome delivers the one-time credential to a newly imported user.
func (m *SMTPMailer) SendWelcome(ctx context.Context, task queue.WelcomeTask) error {
	return m.send(task.Email, "Your school account is ready", welcomeBody(task))
}

// SendImportReport delivers the completion summary to the job initiator.
func (m *SMTPMailer) SendImportReport(ctx context.Context, to string, report *importer.Report) error {
	return m.send(to, "User import completed", reportBody(report))
}

func welcomeBody(task queue.WelcomeTask) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hello %s %s,\n\n", task.FirstName, task.LastName)
	sb.WriteString("An account has been created for you.\n\n")
	fmt.Fprintf(&sb, "Login: %s\n", task.Email)
	fmt.Fprintf(&sb, "Temporary password: %s\n\n", task.TempSecret)
	sb.WriteString("Please sign in and change this password right away.\n")
	return sb.String()
}

func reportBody(report *importer.Report) string {
	var sb strings.Builder
	sb.WriteString("Your user import has finished.\n\n")
	fmt.Fprintf(&sb, "Created: %d\n", report.SuccessCount)
	fmt.Fprintf(&sb, "Rejected: %d\n", report.ErrorCount)
	if len(report.Errors) > 0 {
		sb.WriteString("\nRejected rows:\n")
		for _, rowErr := range report.Errors {
			fmt.Fprintf(&sb, "  line %d: %s\n", rowErr.Line, rowErr.Error)
		}
	}
	return sb.String()
}

func (m *SMTPMailer) send(to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}
