package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"strings"

	"procurement_flow_go/config"

	"github.com/resend/resend-go/v2"
)

// Notifier delivers a message to one recipient
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// EmailNotifier sends through Resend, or logs to the console in test mode
type EmailNotifier struct {
	cfg    *config.Config
	client *resend.Client
}

// NewEmailNotifier creates a notifier from configuration
func NewEmailNotifier(cfg *config.Config) *EmailNotifier {
	n := &EmailNotifier{cfg: cfg}
	if cfg.ResendAPIKey != "" {
		n.client = resend.NewClient(cfg.ResendAPIKey)
	}
	return n
}

// Send implements Notifier
func (n *EmailNotifier) Send(ctx context.Context, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("no recipient for %q", subject)
	}
	htmlBody, err := renderNotice(subject, body)
	if err != nil {
		return err
	}
	return n.SendEmail(ctx, &Email{
		To:       []string{to},
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: body,
	})
}

// SendEmail sends an email using Resend API
func (n *EmailNotifier) SendEmail(ctx context.Context, email *Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// In development mode, log the email instead of sending
	if n.cfg.EmailTestMode {
		logEmailToConsole(email)
		return nil
	}

	if n.client == nil {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", n.cfg.EmailFromName, n.cfg.EmailFrom),
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
	}
	if params.Html == "" && params.Text == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	sent, err := n.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %w", err)
	}

	log.Printf("[EMAIL] Sent via Resend (ID: %s) to: %v", sent.Id, email.To)
	return nil
}

var noticeTemplate = template.Must(template.New("notice").Parse(`<html><body>
<h2>{{.Subject}}</h2>
{{range .Lines}}<p>{{.}}</p>
{{end}}</body></html>`))

// renderNotice wraps a plain-text body in the HTML notice layout
func renderNotice(subject, body string) (string, error) {
	var buf bytes.Buffer
	err := noticeTemplate.Execute(&buf, struct {
		Subject string
		Lines   []string
	}{subject, strings.Split(body, "\n")})
	if err != nil {
		return "", fmt.Errorf("failed to render notice: %w", err)
	}
	return buf.String(), nil
}

// logEmailToConsole logs email details to console in development mode
func logEmailToConsole(email *Email) {
	separator := strings.Repeat("=", 80)
	log.Printf("\n%s\n[EMAIL] Development mode, not actually sent\n%s", separator, separator)
	log.Printf("To: %v", email.To)
	log.Printf("Subject: %s", email.Subject)
	log.Printf("\n--- TEXT BODY ---\n%s", email.TextBody)
	log.Printf("%s\n", separator)
}
