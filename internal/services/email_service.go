package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v2"
	log "github.com/sirupsen/logrus"
)

// EmailType selects one of the four static templates.
type EmailType string

const (
	EmailWelcome             EmailType = "welcome"
	EmailPasswordReset       EmailType = "password_reset"
	EmailSubscriptionConfirm EmailType = "subscription_confirm"
	EmailSubscriptionCancel  EmailType = "subscription_cancel"
)

// EmailRequest is the notification-dispatch payload.
type EmailRequest struct {
	Email string            `json:"email" binding:"required,email"`
	Name  string            `json:"name" binding:"required"`
	Type  EmailType         `json:"type" binding:"required"`
	Data  map[string]string `json:"data"`
}

// Mailer sends one rendered email and returns the provider's send id.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, html string) (string, error)
}

// ResendMailer sends through the Resend transactional API.
type ResendMailer struct {
	client *resend.Client
}

func NewResendMailer(apiKey string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey)}
}

func (m *ResendMailer) Send(ctx context.Context, from, to, subject, html string) (string, error) {
	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return "", err
	}
	return sent.Id, nil
}

// EmailService renders a template for an event type and dispatches one email.
type EmailService interface {
	// Render returns the subject and HTML body for the request without
	// sending anything.
	Render(req EmailRequest) (subject, html string, err error)
	// Send renders and dispatches, returning the provider send id.
	Send(ctx context.Context, req EmailRequest) (string, error)
}

type emailService struct {
	mailer       Mailer
	from         string
	dashboardURL string
}

func NewEmailService(mailer Mailer, from, dashboardURL string) EmailService {
	return &emailService{mailer: mailer, from: from, dashboardURL: dashboardURL}
}

// templateData is what every template renders against; unused fields stay
// empty.
type templateData struct {
	Name         string
	Plan         string
	Amount       string
	DashboardURL string
}

func (s *emailService) Render(req EmailRequest) (string, string, error) {
	data := templateData{
		Name:         req.Name,
		DashboardURL: s.dashboardURL,
	}

	var subject string
	var tmpl *template.Template

	switch req.Type {
	case EmailWelcome:
		subject = welcomeSubject
		tmpl = welcomeTemplate
	case EmailPasswordReset:
		subject = passwordResetSubject
		tmpl = passwordResetTemplate
	case EmailSubscriptionConfirm:
		data.Plan = valueOrDefault(req.Data, "plan", "Pro")
		data.Amount = valueOrDefault(req.Data, "amount", "$29.99")
		subject = fmt.Sprintf(subscriptionConfirmSubjectFmt, data.Plan)
		tmpl = subscriptionConfirmTemplate
	case EmailSubscriptionCancel:
		subject = subscriptionCancelSubject
		tmpl = subscriptionCancelTemplate
	default:
		return "", "", ErrUnknownEmailType
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", "", err
	}
	return subject, body.String(), nil
}

func (s *emailService) Send(ctx context.Context, req EmailRequest) (string, error) {
	subject, html, err := s.Render(req)
	if err != nil {
		return "", err
	}

	id, err := s.mailer.Send(ctx, s.from, req.Email, subject, html)
	if err != nil {
		log.WithFields(log.Fields{
			"to":    req.Email,
			"type":  string(req.Type),
			"error": err.Error(),
		}).Error("Email dispatch failed")
		return "", err
	}

	log.WithFields(log.Fields{
		"to":      req.Email,
		"type":    string(req.Type),
		"send_id": id,
	}).Info("Email dispatched")
	return id, nil
}

func valueOrDefault(data map[string]string, key, fallback string) string {
	if v, ok := data[key]; ok && v != "" {
		return v
	}
	return fallback
}
