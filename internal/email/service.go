package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateData is passed to every email template.
type TemplateData struct {
	FirstName string
	URL       string
}

// Service renders the known email templates and dispatches them through a
// Sender.
type Service struct {
	sender    Sender
	from      string
	templates *template.Template
}

// NewService creates an email service sending from the given address.
func NewService(sender Sender, from string) (*Service, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &Service{
		sender:    sender,
		from:      from,
		templates: tmpl,
	}, nil
}

// SendWelcome sends the signup welcome message.
func (s *Service) SendWelcome(ctx context.Context, to, firstName, url string) error {
	return s.send(ctx, "welcome.html", to, "Welcome to the Tourista family!", TemplateData{
		FirstName: firstName,
		URL:       url,
	})
}

// SendPasswordReset sends the password-reset message carrying the raw token
// URL. The token is only valid for 10 minutes.
func (s *Service) SendPasswordReset(ctx context.Context, to, firstName, url string) error {
	return s.send(ctx, "password_reset.html", to, "Your password reset token (valid for 10 minutes)", TemplateData{
		FirstName: firstName,
		URL:       url,
	})
}

func (s *Service) send(ctx context.Context, name, to, subject string, data TemplateData) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, name, data); err != nil {
		return fmt.Errorf("render email %s: %w", name, err)
	}

	return s.sender.Send(ctx, Message{
		From:    s.from,
		To:      to,
		Subject: subject,
		HTML:    body.String(),
	})
}
