package notification

import (
	"bytes"
	"fmt"
	"net/smtp"
	"text/template"
	"time"

	"github.com/smukkama/fleetzone-server/internal/database"
	"github.com/smukkama/fleetzone-server/pkg/config"
)

// EmailNotifier sends email notifications for warning-severity alerts
type EmailNotifier struct {
	config *config.SMTPConfig
}

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(cfg *config.SMTPConfig) *EmailNotifier {
	return &EmailNotifier{config: cfg}
}

var alertTemplate = template.Must(template.New("alert").Parse(`
FleetZone Alert
===============

Type: {{.AlertType}}
Severity: {{.Severity}}
Created: {{.CreatedAt}}
Alert ID: {{.ID}}

{{.Message}}

---
FleetZone Notification System
`))

// SendAlert sends an email for a persisted alert
func (e *EmailNotifier) SendAlert(alert *database.Alert) error {
	subject := fmt.Sprintf("FleetZone %s alert: %s", alert.Severity, alert.AlertType)

	var buf bytes.Buffer
	if err := alertTemplate.Execute(&buf, alert); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return e.sendEmail(subject, buf.String())
}

func (e *EmailNotifier) sendEmail(subject, body string) error {
	// Skip sending if SMTP is not configured
	if e.config.Username == "" || e.config.Password == "" {
		fmt.Printf("SMTP not configured, skipping email:\nSubject: %s\n%s\n", subject, body)
		return nil
	}

	message := fmt.Sprintf("From: %s\r\n", e.config.From)
	message += fmt.Sprintf("To: %s\r\n", e.config.To)
	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	message += "\r\n"
	message += body

	auth := smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)

	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)
	if err := smtp.SendMail(addr, auth, e.config.From, []string{e.config.To}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	fmt.Printf("Email sent successfully: %s\n", subject)
	return nil
}
