package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/resendlabs/resend-go"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

type Config struct {
	APIKey      string
	From        string
	FromName    string
	FrontendURL string
}

type EmailService struct {
	client      *resend.Client
	from        string
	fromName    string
	frontendURL string
	templates   *template.Template
	logger      *zap.Logger
	now         func() time.Time
}

// NewEmailService builds the service. Without an API key messages are
// rendered and logged but never sent.
func NewEmailService(cfg Config, logger *zap.Logger) (*EmailService, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	var client *resend.Client
	if cfg.APIKey != "" {
		client = resend.NewClient(cfg.APIKey)
	}

	return &EmailService{
		client:      client,
		from:        cfg.From,
		fromName:    cfg.FromName,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		templates:   tmpl,
		logger:      logger.Named("email"),
		now:         time.Now,
	}, nil
}

func (s *EmailService) SendWelcomeEmail(email, firstName string) error {
	data := map[string]interface{}{
		"FirstName":   firstName,
		"Email":       email,
		"FrontendURL": s.frontendURL,
		"Year":        s.now().Year(),
	}
	return s.send(email, "Welcome to CivicReport!", "welcome.html", data)
}

func (s *EmailService) SendIssueResolvedEmail(email, firstName string, issueID uint, issueTitle string) error {
	data := map[string]interface{}{
		"FirstName":  firstName,
		"IssueTitle": issueTitle,
		"IssueURL":   s.IssueURL(issueID),
		"Year":       s.now().Year(),
	}
	return s.send(email, "Your reported issue has been resolved", "issue_resolved.html", data)
}

func (s *EmailService) SendNewCommentEmail(email, firstName, commenterName string, issueID uint, issueTitle, text string) error {
	data := map[string]interface{}{
		"FirstName":     firstName,
		"CommenterName": commenterName,
		"IssueTitle":    issueTitle,
		"CommentText":   text,
		"IssueURL":      s.IssueURL(issueID),
		"Year":          s.now().Year(),
	}
	return s.send(email, "New comment on "+issueTitle, "new_comment.html", data)
}

// IssueURL is the frontend page for an issue.
func (s *EmailService) IssueURL(issueID uint) string {
	return fmt.Sprintf("%s/issues/%d", s.frontendURL, issueID)
}

func (s *EmailService) send(to, subject, templateName string, data interface{}) error {
	html, err := s.render(templateName, data)
	if err != nil {
		s.logger.Error("failed to render template", zap.String("template", templateName), zap.Error(err))
		return err
	}

	if s.client == nil {
		s.logger.Info("email delivery disabled, skipping",
			zap.String("to", to),
			zap.String("subject", subject),
		)
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    s.fromName + " <" + s.from + ">",
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	resp, err := s.client.Emails.Send(params)
	if err != nil {
		s.logger.Error("failed to send email", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return err
	}

	s.logger.Info("email sent", zap.String("to", to), zap.String("id", resp.Id))
	return nil
}

func (s *EmailService) render(templateName string, data interface{}) (string, error) {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return body.String(), nil
}
