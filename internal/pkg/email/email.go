package email

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/selah-im/intake_server/config"
	"github.com/selah-im/intake_server/internal/model"
)

// Template types carried in X-Template-Type
const (
	TemplateWelcome           = "welcome"
	TemplateAdminNotification = "admin_notification"
)

const (
	HeaderSource       = "X-Contemplative-Source"
	HeaderTemplateType = "X-Template-Type"
	HeaderApplication  = "X-Application-Id"
)

// Message is one outgoing email.
type Message struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
	Headers  map[string]string
}

// Sender delivers a message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

// SendResult reports a delivery attempt. Failures are carried here rather
// than returned as errors.
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Metadata struct {
	TemplateType  string
	ApplicationID string
}

// Service is the applicant and admin notifier.
type Service struct {
	sender  Sender
	cfg     *config.EmailConfig
	siteURL string
	log     *zap.Logger
}

func NewService(sender Sender, cfg *config.EmailConfig, siteURL string, log *zap.Logger) *Service {
	return &Service{
		sender:  sender,
		cfg:     cfg,
		siteURL: strings.TrimRight(siteURL, "/"),
		log:     log,
	}
}

// SendWelcome wraps body in the house layout and sends it.
func (s *Service) SendWelcome(ctx context.Context, to, subject, body string, meta Metadata) SendResult {
	templateType := meta.TemplateType
	if templateType == "" {
		templateType = TemplateWelcome
	}

	html, err := renderHTML(body)
	if err != nil {
		return s.failed(to, templateType, err)
	}

	headers := map[string]string{
		HeaderSource:       s.cfg.SourceTag,
		HeaderTemplateType: templateType,
	}
	if meta.ApplicationID != "" {
		headers[HeaderApplication] = meta.ApplicationID
	}

	id, err := s.sender.Send(ctx, &Message{
		From:     s.cfg.From,
		To:       to,
		Subject:  subject,
		HTMLBody: html,
		Headers:  headers,
	})
	if err != nil {
		return s.failed(to, templateType, err)
	}

	s.log.Debug("email sent", zap.String("template", templateType), zap.String("message_id", id))
	return SendResult{Success: true, MessageID: id}
}

// SendAdminAlert sends a plain summary of the record to the internal address.
func (s *Service) SendAdminAlert(ctx context.Context, app *model.Application) SendResult {
	subject := "New Selah Application: " + app.PreferredName
	return s.SendWelcome(ctx, s.cfg.AdminAddress, subject, s.adminSummary(app), Metadata{
		TemplateType:  TemplateAdminNotification,
		ApplicationID: app.ID,
	})
}

func (s *Service) adminSummary(app *model.Application) string {
	var b strings.Builder
	b.WriteString("New contemplative technology application received:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", app.PreferredName)
	fmt.Fprintf(&b, "Email: %s\n\n", app.Email)
	fmt.Fprintf(&b, "Discovery Story:\n%s\n\n", app.DiscoveryStory)
	fmt.Fprintf(&b, "Technology Relationship:\n%s\n\n", app.TechRelationship)

	if app.ContemplativeReadinessScore != nil {
		fmt.Fprintf(&b, "Readiness Score: %.1f\n", *app.ContemplativeReadinessScore)
	}
	if result, err := app.Analysis(); err == nil && result != nil {
		fmt.Fprintf(&b, "Recommendation: %s (confidence %.0f)\n", result.AdminRecommendation.Decision, result.AdminRecommendation.Confidence)
		if result.AdminRecommendation.Reasoning != "" {
			fmt.Fprintf(&b, "Reasoning: %s\n", result.AdminRecommendation.Reasoning)
		}
	}
	fmt.Fprintf(&b, "Welcome Email Sent: %t\n\n", app.WelcomeEmailSent)

	fmt.Fprintf(&b, "Review at: %s/admin/applications/%s\n", s.siteURL, app.ID)
	return b.String()
}

func (s *Service) failed(to, templateType string, err error) SendResult {
	s.log.Warn("email send failed",
		zap.String("template", templateType),
		zap.String("to", to),
		zap.Error(err))
	return SendResult{Success: false, Error: err.Error()}
}
