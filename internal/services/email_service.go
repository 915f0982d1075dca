package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailService copies notifications to the recipient's inbox through SendGrid.
type EmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey, fromEmail, fromName string) *EmailService {
	return &EmailService{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// SendNotification implements Mailer.
func (s *EmailService) SendNotification(ctx context.Context, to Recipient, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(to.Name, to.Email)
	message := mail.NewSingleEmail(from, subject, recipient, body, notificationHTML(body))

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email to %s: %d", to.Email, response.StatusCode)
	}
	return nil
}

// notificationHTML renders a plain-text body as paragraphs.
func notificationHTML(body string) string {
	var b strings.Builder
	for _, para := range strings.Split(body, "\n\n") {
		lines := strings.Split(para, "\n")
		for i, line := range lines {
			lines[i] = html.EscapeString(line)
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(lines, "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}
